// Package hthash defines the hashing capability used by the hashtree packages.
//
// A tree never hard-codes a hash algorithm.
// Instead it is given a [Hasher], which hashes raw leaf data
// and combines two child digests into a parent digest.
// See the htsha256 subpackage for SHA-256 implementations,
// and the hthashtest subpackage for a compliance suite
// that any Hasher implementation should pass.
package hthash
