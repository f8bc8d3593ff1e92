package hashtree

import "github.com/gordian-engine/hashtree/hthash"

// node is a single entry in a Tree's node arena.
//
// Children are referenced by arena index rather than by pointer.
// When a level is padded, the same arena index appears twice,
// so a node may be reachable from two positions;
// nodes are never modified after creation,
// so that aliasing is read-only.
type node struct {
	digest hthash.Digest

	// Arena indices of the children; both are -1 for leaves.
	left, right int

	// Leaf-only: a private copy of the original block,
	// and its 0-based position in the input.
	data  []byte
	index int

	// Set on an internal node created by pairing
	// the final node of an odd-width level with itself.
	// Its right child is the same subtree as its left,
	// so proof collection only descends to the left.
	padded bool
}

func (n *node) isLeaf() bool {
	return n.left < 0
}

// LeafNode is a read-only view of a leaf in a [Tree].
//
// The Digest and Data slices reference the tree's memory
// and must not be modified.
type LeafNode struct {
	// The 0-based position of the block in the original input.
	// The duplicate that pads an odd leaf layer
	// reports the same Index as the final original leaf.
	Index int

	Digest hthash.Digest
	Data   []byte
}
