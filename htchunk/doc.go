// Package htchunk splits a payload into erasure-coded shards
// whose hash tree lets a receiver verify each shard independently,
// and reassembles the payload once enough verified shards arrive.
//
// The sender calls [Split], builds a tree with [Chunks.Tree],
// and publishes the root digest along with the [Meta].
// The receiver feeds each shard and its [hashtree.Proof]
// into a [Reassembler] until [*Reassembler.Ready] reports true.
package htchunk
