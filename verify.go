package hashtree

import (
	"bytes"
	"fmt"

	"github.com/gordian-engine/hashtree/hthash"
)

// Verify reports whether p proves membership under the given root.
//
// Starting from p.LeafHash, each step is combined with the running digest,
// honoring the step's orientation,
// and the final digest is compared with root.
// A mismatch is an ordinary false result, not an error.
func Verify(h hthash.Hasher, p Proof, root hthash.Digest) bool {
	if h == nil {
		panic(fmt.Errorf("BUG: Verify requires a non-nil Hasher"))
	}

	return bytes.Equal(DeriveRoot(h, p), root)
}

// VerifyLeaf is like [Verify], but it first confirms
// that data hashes to p.LeafHash.
func VerifyLeaf(h hthash.Hasher, data []byte, p Proof, root hthash.Digest) bool {
	if h == nil {
		panic(fmt.Errorf("BUG: VerifyLeaf requires a non-nil Hasher"))
	}

	if !hthash.LeafDigest(h, data).Equal(p.LeafHash) {
		return false
	}
	return Verify(h, p, root)
}

// DeriveRoot recomputes the root digest implied by p.
func DeriveRoot(h hthash.Hasher, p Proof) hthash.Digest {
	acc := p.LeafHash.Clone()

	// Alternate between two buffers so that each step
	// can read the previous result while writing the next.
	var spare []byte
	for _, s := range p.Siblings {
		if s.IsLeft {
			spare = h.Node(s.Hash, acc, spare[:0])
		} else {
			spare = h.Node(acc, s.Hash, spare[:0])
		}
		acc, spare = spare, acc
	}

	return acc
}

// Verify reports whether p proves membership in t.
// It is shorthand for calling [Verify] with t's hasher and root.
func (t *Tree) Verify(p Proof) bool {
	return Verify(t.hasher, p, t.nodes[t.root].digest)
}
