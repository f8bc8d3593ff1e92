package hashtree_test

import (
	"bytes"
	"testing"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash/hthashtest"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/gordian-engine/hashtree/internal/htest"
	"github.com/stretchr/testify/require"
)

// randomTree builds a tree over n distinct pseudorandom blocks.
func randomTree(t *testing.T, n int) *hashtree.Tree {
	t.Helper()

	tree, err := hashtree.Build(htsha256.Hasher{}, htest.RandomBlocksForTest(t, n, 32))
	require.NoError(t, err)
	return tree
}

func TestVerify_tamperedSibling(t *testing.T) {
	t.Parallel()

	tree := randomTree(t, 16)
	h := htsha256.Hasher{}
	root := tree.Root()

	for _, p := range tree.Proofs() {
		for i := range p.Siblings {
			tampered := p.Clone()
			tampered.Siblings[i].Hash[0] ^= 0x01
			require.False(t, hashtree.Verify(h, tampered, root))
		}
	}
}

func TestVerify_tamperedLeafHash(t *testing.T) {
	t.Parallel()

	tree := randomTree(t, 11)
	h := htsha256.Hasher{}
	root := tree.Root()

	for _, p := range tree.Proofs() {
		tampered := p.Clone()
		tampered.LeafHash[len(tampered.LeafHash)-1] ^= 0x80
		require.False(t, hashtree.Verify(h, tampered, root))
	}
}

func TestVerify_tamperedOrientation(t *testing.T) {
	t.Parallel()

	// A power of two with distinct blocks,
	// so no step combines a digest with itself.
	tree := randomTree(t, 16)
	h := htsha256.Hasher{}
	root := tree.Root()

	for _, p := range tree.Proofs() {
		for i := range p.Siblings {
			tampered := p.Clone()
			tampered.Siblings[i].IsLeft = !tampered.Siblings[i].IsLeft
			require.False(t, hashtree.Verify(h, tampered, root))
		}
	}
}

func TestVerify_orientationOfSelfPairing(t *testing.T) {
	t.Parallel()

	// When a node is paired with itself,
	// the orientation of that step cannot matter.
	// This is the documented ambiguity of duplicate padding.
	tree, err := hashtree.Build(htsha256.Hasher{}, helloBlocks(3))
	require.NoError(t, err)

	p, err := tree.Proof(3)
	require.NoError(t, err)
	require.True(t, bytes.Equal(p.LeafHash, p.Siblings[0].Hash))

	flipped := p.Clone()
	flipped.Siblings[0].IsLeft = !flipped.Siblings[0].IsLeft
	require.True(t, tree.Verify(flipped))
}

func TestVerify_truncatedOrExtended(t *testing.T) {
	t.Parallel()

	tree := randomTree(t, 8)
	p, err := tree.Proof(2)
	require.NoError(t, err)

	short := p.Clone()
	short.Siblings = short.Siblings[:len(short.Siblings)-1]
	require.False(t, tree.Verify(short))

	long := p.Clone()
	long.Siblings = append(long.Siblings, hashtree.ProofStep{Hash: tree.Root()})
	require.False(t, tree.Verify(long))
}

func TestVerify_wrongRoot(t *testing.T) {
	t.Parallel()

	a := randomTree(t, 5)
	b, err := hashtree.Build(htsha256.Hasher{}, helloBlocks(5))
	require.NoError(t, err)

	for _, p := range a.Proofs() {
		require.False(t, hashtree.Verify(htsha256.Hasher{}, p, b.Root()))
	}
}

func TestVerifyLeaf(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(hthashtest.ConcatHasher{}, stringBlocks("a", "b", "c"))
	require.NoError(t, err)

	h := hthashtest.ConcatHasher{}
	root := tree.Root()

	p, err := tree.Proof(1)
	require.NoError(t, err)

	require.True(t, hashtree.VerifyLeaf(h, []byte("b"), p, root))
	require.False(t, hashtree.VerifyLeaf(h, []byte("x"), p, root))
}

func TestDeriveRoot_doesNotModifyProof(t *testing.T) {
	t.Parallel()

	tree := randomTree(t, 6)
	p, err := tree.Proof(5)
	require.NoError(t, err)

	orig := p.Clone()
	_ = hashtree.DeriveRoot(htsha256.Hasher{}, p)
	require.Equal(t, orig, p)
}
