package hashtree

import (
	"bytes"
	"fmt"

	"github.com/gordian-engine/hashtree/hthash"
)

// builder appends nodes to a Tree's arena during construction.
type builder struct {
	t *Tree

	// Optional contiguous backing memory for digests,
	// used when the hash size is known up front.
	mem      []byte
	hashSize int
}

// dst returns the slice that the next arena node's digest
// should be appended to.
func (b *builder) dst() []byte {
	if b.mem == nil {
		return nil
	}

	start := len(b.t.nodes) * b.hashSize
	end := start + b.hashSize

	// Zero length but full capacity, so the Hasher appends in place.
	return b.mem[start:start:end]
}

// prepareLeafLayer creates one leaf node per block,
// and returns the arena indices of the leaf layer.
//
// If the block count is odd and greater than one,
// the final leaf's index is repeated so the layer has even width.
func (b *builder) prepareLeafLayer(blocks [][]byte) []int {
	h := b.t.hasher

	width := len(blocks)
	if width > 1 && width&1 == 1 {
		width++
	}
	layer := make([]int, 0, width)

	for i, block := range blocks {
		data := bytes.Clone(block)
		if data == nil {
			// Keep nil and empty blocks indistinguishable to callers of LeafData.
			data = []byte{}
		}

		idx := len(b.t.nodes)
		b.t.nodes = append(b.t.nodes, node{
			digest: hthash.Digest(h.Leaf(data, b.dst())),

			left:  -1,
			right: -1,

			data:  data,
			index: i,
		})
		layer = append(layer, idx)
	}

	if len(layer) > 1 && len(layer)&1 == 1 {
		// Duplicate the reference, not the leaf.
		layer = append(layer, layer[len(layer)-1])
	}

	if len(layer) != 1 && len(layer)&1 == 1 {
		panic(InvariantViolationError{
			Msg: fmt.Sprintf("leaf layer has odd width %d", len(layer)),
		})
	}

	return layer
}
