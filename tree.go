package hashtree

import (
	"fmt"
	"slices"

	"github.com/gordian-engine/hashtree/hthash"
)

// Tree is an immutable binary Merkle tree.
//
// Create a Tree with [Build] or [NewTree].
// There is no API to modify a Tree after it is built,
// so all of its methods are safe to call concurrently.
type Tree struct {
	hasher hthash.Hasher

	// All nodes, leaves first, then each internal level in order.
	nodes []node

	// Arena indices of each level, as produced by the builders.
	// levels[0] is the padded leaf layer,
	// and the final level holds only the root.
	levels [][]int

	root int

	nLeaves int
}

// BuildConfig is the configuration for [NewTree].
type BuildConfig struct {
	Hasher hthash.Hasher

	// The ordered data blocks to become leaves.
	// The tree keeps its own copy of every block,
	// so the caller may reuse the slices after NewTree returns.
	Blocks [][]byte

	// Optional size, in bytes, of the Hasher's digests.
	// When set, every digest in the tree is written
	// into a single contiguous allocation.
	// Hashers producing variable-length digests should leave this zero.
	HashSize int
}

// Build is shorthand for [NewTree] with only the hasher and blocks set.
func Build(h hthash.Hasher, blocks [][]byte) (*Tree, error) {
	return NewTree(BuildConfig{
		Hasher: h,
		Blocks: blocks,
	})
}

// NewTree builds a tree over the blocks in cfg.
//
// If cfg.Blocks is empty, NewTree returns [ErrEmptyInput].
func NewTree(cfg BuildConfig) (*Tree, error) {
	if cfg.Hasher == nil {
		panic(fmt.Errorf("BUG: BuildConfig.Hasher must not be nil"))
	}
	if cfg.HashSize < 0 {
		panic(fmt.Errorf(
			"BUG: BuildConfig.HashSize must be non-negative (got %d)", cfg.HashSize,
		))
	}

	if len(cfg.Blocks) == 0 {
		return nil, ErrEmptyInput
	}

	widths := levelWidths(len(cfg.Blocks))

	// The leaf layer's duplicate does not occupy its own arena slot,
	// so the arena holds the original leaves plus every internal level.
	nNodes := len(cfg.Blocks)
	for _, w := range widths[1:] {
		nNodes += w
	}

	t := &Tree{
		hasher: cfg.Hasher,

		nodes:  make([]node, 0, nNodes),
		levels: make([][]int, 0, len(widths)),

		nLeaves: len(cfg.Blocks),
	}

	b := builder{t: t}
	if cfg.HashSize > 0 {
		b.mem = make([]byte, nNodes*cfg.HashSize)
		b.hashSize = cfg.HashSize
	}

	level := b.prepareLeafLayer(cfg.Blocks)
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		level = b.prepareNodeLevel(level)
		t.levels = append(t.levels, level)
	}

	t.root = level[0]
	return t, nil
}

// levelWidths reports the width of every level that the builders produce
// for nBlocks leaves, from the padded leaf layer through the root.
// Internal levels are reported before their own padding is applied,
// so 5 blocks report [6 3 2 1].
func levelWidths(nBlocks int) []int {
	w := nBlocks
	if w > 1 && w&1 == 1 {
		w++
	}

	out := []int{w}
	for w > 1 {
		w = (w + 1) / 2
		out = append(out, w)
	}
	return out
}

// Root returns a copy of the root digest.
func (t *Tree) Root() hthash.Digest {
	return t.nodes[t.root].digest.Clone()
}

// Hasher returns the hasher the tree was built with.
func (t *Tree) Hasher() hthash.Hasher {
	return t.hasher
}

// NumLeaves returns the number of data blocks the tree was built from.
func (t *Tree) NumLeaves() int {
	return t.nLeaves
}

// NumPaddedLeaves returns the width of the leaf layer,
// which is one more than [*Tree.NumLeaves] when the block count
// was odd and greater than one.
func (t *Tree) NumPaddedLeaves() int {
	return len(t.levels[0])
}

// Depth returns the number of levels below the root,
// which is also the number of siblings in every proof.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// LevelWidths returns the width of each level, from the leaf layer to the root.
func (t *Tree) LevelWidths() []int {
	out := make([]int, len(t.levels))
	for i, l := range t.levels {
		out[i] = len(l)
	}
	return out
}

// Leaf returns the leaf at the given position in the padded leaf layer.
// The second return value is false if pos is out of range.
//
// The returned Digest and Data are shared with the tree
// and must not be modified.
func (t *Tree) Leaf(pos int) (LeafNode, bool) {
	if pos < 0 || pos >= len(t.levels[0]) {
		return LeafNode{}, false
	}

	n := &t.nodes[t.levels[0][pos]]
	return LeafNode{
		Index:  n.index,
		Digest: n.digest,
		Data:   n.data,
	}, true
}

// LeafData returns a copy of the original block at the given input index.
// The second return value is false if idx is out of range.
func (t *Tree) LeafData(idx int) ([]byte, bool) {
	if idx < 0 || idx >= t.nLeaves {
		return nil, false
	}

	// Original leaves occupy the first arena slots in input order.
	return slices.Clone(t.nodes[idx].data), true
}
