package hashtree

import "github.com/gordian-engine/hashtree/hthash"

// prepareNodeLevel pairs the nodes of level left to right
// into new internal nodes, and returns the arena indices of the new level.
//
// A final unpaired node is paired with itself.
// That never happens on the leaf layer, which is already even,
// but it is routine on internal levels:
// a six-leaf layer reduces to three nodes, which pad to four.
func (b *builder) prepareNodeLevel(level []int) []int {
	if len(level) == 0 {
		panic(InvariantViolationError{Msg: "cannot build a level from zero nodes"})
	}

	h := b.t.hasher
	out := make([]int, 0, (len(level)+1)/2)

	for i := 0; i < len(level); i += 2 {
		leftIdx := level[i]

		rightIdx := leftIdx
		padded := true
		if i+1 < len(level) {
			rightIdx = level[i+1]
			padded = false
		}

		left := b.t.nodes[leftIdx].digest
		right := b.t.nodes[rightIdx].digest

		idx := len(b.t.nodes)
		b.t.nodes = append(b.t.nodes, node{
			digest: hthash.Digest(h.Node(left, right, b.dst())),

			left:  leftIdx,
			right: rightIdx,

			padded: padded,
		})
		out = append(out, idx)
	}

	return out
}
