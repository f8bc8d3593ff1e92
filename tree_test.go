package hashtree_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash/hthashtest"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/gordian-engine/hashtree/internal/htest"
	"github.com/stretchr/testify/require"
)

func helloBlocks(n int) [][]byte {
	out := make([][]byte, n)
	for i := range n {
		out[i] = fmt.Appendf(nil, "hello %d", i+1)
	}
	return out
}

func stringBlocks(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestBuild_empty(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(htsha256.Hasher{}, nil)
	require.ErrorIs(t, err, hashtree.ErrEmptyInput)
	require.Nil(t, tree)

	_, err = hashtree.Build(htsha256.Hasher{}, [][]byte{})
	require.True(t, errors.Is(err, hashtree.ErrEmptyInput))
}

func TestBuild_single(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(htsha256.Hasher{}, helloBlocks(1))
	require.NoError(t, err)

	// The root is the leaf itself.
	require.Equal(t, htsha256.Sum([]byte("hello 1")), tree.Root())
	require.Equal(t, []int{1}, tree.LevelWidths())
	require.Equal(t, 0, tree.Depth())
	require.Equal(t, 1, tree.NumLeaves())
	require.Equal(t, 1, tree.NumPaddedLeaves())
}

func TestBuild_shape_simplified(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		blocks []string
		widths []int
		root   string
	}{
		{
			blocks: []string{"a", "b"},
			widths: []int{2, 1},
			root:   "[a|b]",
		},
		{
			blocks: []string{"a", "b", "c"},
			widths: []int{4, 2, 1},
			root:   "[[a|b]|[c|c]]",
		},
		{
			blocks: []string{"a", "b", "c", "d"},
			widths: []int{4, 2, 1},
			root:   "[[a|b]|[c|d]]",
		},
		{
			/* Tree structure:

			root
			[ab|cd]              [ee|ee]
			[a|b]    [c|d]       [e|e]    (padded)
			a  b     c  d        e  e
			*/
			blocks: []string{"a", "b", "c", "d", "e"},
			widths: []int{6, 3, 2, 1},
			root:   "[[[a|b]|[c|d]]|[[e|e]|[e|e]]]",
		},
		{
			blocks: []string{"a", "b", "c", "d", "e", "f"},
			widths: []int{6, 3, 2, 1},
			root:   "[[[a|b]|[c|d]]|[[e|f]|[e|f]]]",
		},
		{
			blocks: []string{"a", "b", "c", "d", "e", "f", "g"},
			widths: []int{8, 4, 2, 1},
			root:   "[[[a|b]|[c|d]]|[[e|f]|[g|g]]]",
		},
	} {
		t.Run(fmt.Sprintf("%d leaves", len(tc.blocks)), func(t *testing.T) {
			t.Parallel()

			tree, err := hashtree.Build(hthashtest.ConcatHasher{}, stringBlocks(tc.blocks...))
			require.NoError(t, err)

			require.Equal(t, tc.widths, tree.LevelWidths())
			require.Equal(t, tc.root, string(tree.Root()))
		})
	}
}

func TestBuild_fourBlocks(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(htsha256.Hasher{}, helloBlocks(4))
	require.NoError(t, err)

	require.Equal(t, 4, tree.NumPaddedLeaves())
	require.Equal(t, []int{4, 2, 1}, tree.LevelWidths())
	require.Equal(
		t,
		"76675d3f75bf110ab29f3b8c49671bdfb83aea36c986195f8a320af85c5c8963",
		tree.Root().String(),
	)
}

func TestBuild_fiveBlocks(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(htsha256.Hasher{}, helloBlocks(5))
	require.NoError(t, err)

	require.Equal(t, 5, tree.NumLeaves())
	require.Equal(t, 6, tree.NumPaddedLeaves())
	require.Equal(t, []int{6, 3, 2, 1}, tree.LevelWidths())
	require.Equal(t, 3, tree.Depth())
	require.Equal(
		t,
		"9cf5fd0657c78ba803de34ba2a8ea1fb4593cffbaf956ba3112f39e827862d7d",
		tree.Root().String(),
	)

	last, ok := tree.Leaf(4)
	require.True(t, ok)
	dup, ok := tree.Leaf(5)
	require.True(t, ok)

	require.Equal(t, last.Digest, dup.Digest)
	require.Equal(t, 4, last.Index)
	require.Equal(t, 4, dup.Index)
	require.Equal(t, []byte("hello 5"), dup.Data)

	_, ok = tree.Leaf(6)
	require.False(t, ok)
	_, ok = tree.Leaf(-1)
	require.False(t, ok)
}

func TestBuild_hexCompatibleRoots(t *testing.T) {
	t.Parallel()

	tree4, err := hashtree.Build(htsha256.HexHasher{}, helloBlocks(4))
	require.NoError(t, err)
	require.Equal(
		t,
		"012836499b3766ba46c5ddea9c9e9e2a97de001588ddf552aa4653a3cffc7948",
		string(tree4.Root()),
	)

	tree5, err := hashtree.Build(htsha256.HexHasher{}, helloBlocks(5))
	require.NoError(t, err)
	require.Equal(
		t,
		"be7388316ea773f1dc0edf0afe0fbe23d736da1e05bffa107f23a932c7f991ca",
		string(tree5.Root()),
	)
}

func TestBuild_deterministic(t *testing.T) {
	t.Parallel()

	blocks := htest.RandomBlocksForTest(t, 37, 16)

	first, err := hashtree.Build(htsha256.Hasher{}, blocks)
	require.NoError(t, err)

	for range 3 {
		again, err := hashtree.Build(htsha256.Hasher{}, blocks)
		require.NoError(t, err)
		require.Equal(t, first.Root(), again.Root())
	}

	// Swapping two blocks changes the root.
	blocks[0], blocks[1] = blocks[1], blocks[0]
	swapped, err := hashtree.Build(htsha256.Hasher{}, blocks)
	require.NoError(t, err)
	require.NotEqual(t, first.Root(), swapped.Root())
}

func TestTree_LeafData(t *testing.T) {
	t.Parallel()

	blocks := helloBlocks(3)
	tree, err := hashtree.Build(htsha256.Hasher{}, blocks)
	require.NoError(t, err)

	// The tree holds its own copy.
	blocks[0][0] = 'j'

	d, ok := tree.LeafData(0)
	require.True(t, ok)
	require.Equal(t, []byte("hello 1"), d)

	// The returned slice is also a copy.
	d[0] = 'y'
	d, _ = tree.LeafData(0)
	require.Equal(t, []byte("hello 1"), d)

	// LeafData is indexed by input, so the padded position is out of range.
	_, ok = tree.LeafData(3)
	require.False(t, ok)
}

func TestTree_RootIsCopy(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(htsha256.Hasher{}, helloBlocks(2))
	require.NoError(t, err)

	r := tree.Root()
	r[0] ^= 0xff
	require.NotEqual(t, r, tree.Root())
}

func TestNewTree_nilHasherPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_, _ = hashtree.NewTree(hashtree.BuildConfig{Blocks: helloBlocks(2)})
	})
}
