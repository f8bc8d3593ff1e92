package hthash

// Hasher is the user-defined interface for hashing leaves and nodes.
// The tree passes each raw data block to the Leaf method to create a leaf digest,
// and it passes pairs of digests, left then right, to the Node method.
//
// Like [hash.Hash.Sum], both methods append their output to dst
// and return the resulting slice.
// Hasher must not retain references to any of its arguments.
//
// The order of arguments to Node is significant:
// Node(a, b) and Node(b, a) are expected to differ.
//
// Furthermore, Hasher methods must be safe to call concurrently.
type Hasher interface {
	Leaf(in, dst []byte) []byte
	Node(left, right, dst []byte) []byte
}

// LeafDigest is a convenience wrapper around h.Leaf
// that returns a newly allocated digest.
func LeafDigest(h Hasher, in []byte) Digest {
	return h.Leaf(in, nil)
}
