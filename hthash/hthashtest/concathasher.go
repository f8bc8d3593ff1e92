package hthashtest

import "github.com/gordian-engine/hashtree/hthash"

var _ hthash.Hasher = ConcatHasher{}

// ConcatHasher is a simple, test-only hasher implementation.
// Leaf digests are the leaf data itself,
// and node digests are the bracketed concatenation of their children,
// so a four-leaf tree over "a", "b", "c", "d" has the root "[[a|b]|[c|d]]".
//
// It is obviously not collision resistant,
// but it keeps tree-shape assertions easy to read.
type ConcatHasher struct{}

func (ConcatHasher) Leaf(in, dst []byte) []byte {
	return append(dst, in...)
}

func (ConcatHasher) Node(left, right, dst []byte) []byte {
	dst = append(dst, '[')
	dst = append(dst, left...)
	dst = append(dst, '|')
	dst = append(dst, right...)
	return append(dst, ']')
}
