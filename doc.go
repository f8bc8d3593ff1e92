// Package hashtree builds immutable binary Merkle trees
// over an ordered sequence of data blocks,
// and produces and verifies inclusion proofs for every leaf.
//
// The tree never hard-codes its hash algorithm;
// callers supply an [hthash.Hasher].
//
// Every level of the tree, except the final root,
// has an even number of nodes.
// When a level would have an odd count,
// its last node is paired with itself.
// At the leaf layer that means the final leaf appears twice,
// with the same digest and the same original index,
// and both positions receive independently valid proofs.
// Proof consumers should be aware that the duplicate
// is indistinguishable from the original by hash alone.
//
// A built [Tree] is never modified,
// so it may be shared freely across goroutines.
package hashtree
