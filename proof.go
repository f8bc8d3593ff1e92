package hashtree

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gordian-engine/hashtree/hthash"
)

// Proof is an inclusion proof for a single leaf.
//
// A Proof owns all of its digests;
// it does not reference the memory of the tree it came from.
//
// In JSON, every digest is the hex encoding of its bytes.
// For a tree built with a hasher whose digests are already hex text,
// such as [github.com/gordian-engine/hashtree/hthash/htsha256.HexHasher],
// that text is hex-encoded again;
// callers that need the text itself must render the digests themselves.
type Proof struct {
	// The leaf's own digest.
	LeafHash hthash.Digest `json:"leaf_hash"`

	// The leaf's 0-based position in the original input.
	LeafIndex int `json:"leaf_index"`

	// Sibling digests ordered from the leaf's level up to,
	// but not including, the root.
	// Siblings[0] is the leaf's immediate sibling.
	Siblings []ProofStep `json:"siblings"`
}

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Hash hthash.Digest `json:"hash"`

	// IsLeft is true when the sibling is the left operand
	// of the combination at this level,
	// meaning the proven path is the right child.
	IsLeft bool `json:"is_left"`
}

// Proofs returns one proof for every position in the padded leaf layer,
// in leaf-layer order.
//
// When the input had an odd number of blocks,
// the final leaf and its duplicate each get their own proof.
func (t *Tree) Proofs() []Proof {
	out := make([]Proof, 0, len(t.levels[0]))

	// Every leaf is at the same depth,
	// so one scratch path can be shared by the whole walk.
	depth := t.Depth()
	path := make([]ProofStep, depth)

	return t.collectProofs(t.root, depth, path, out)
}

// collectProofs walks the subtree rooted at arena index idx,
// which sits at the given height above the leaf layer.
// path holds the siblings already encountered above this subtree,
// in the slots above height.
func (t *Tree) collectProofs(idx, height int, path []ProofStep, out []Proof) []Proof {
	n := &t.nodes[idx]

	if n.isLeaf() {
		siblings := make([]ProofStep, len(path))
		for i, s := range path {
			siblings[i] = ProofStep{
				Hash:   s.Hash.Clone(),
				IsLeft: s.IsLeft,
			}
		}

		return append(out, Proof{
			LeafHash:  n.digest.Clone(),
			LeafIndex: n.index,
			Siblings:  siblings,
		})
	}

	// The children are at height-1,
	// which is also their sibling's slot in the path.
	path[height-1] = ProofStep{Hash: t.nodes[n.right].digest, IsLeft: false}
	out = t.collectProofs(n.left, height-1, path, out)

	if n.padded {
		// The right child is the same subtree as the left.
		return out
	}

	path[height-1] = ProofStep{Hash: t.nodes[n.left].digest, IsLeft: true}
	return t.collectProofs(n.right, height-1, path, out)
}

// Proof returns the proof for the leaf at the given position
// in the padded leaf layer.
//
// The result is identical to the corresponding element of [*Tree.Proofs],
// but it only costs one walk from the leaf to the root.
func (t *Tree) Proof(pos int) (Proof, error) {
	if pos < 0 || pos >= len(t.levels[0]) {
		return Proof{}, LeafOutOfRangeError{Pos: pos, Width: len(t.levels[0])}
	}

	leaf := &t.nodes[t.levels[0][pos]]
	p := Proof{
		LeafHash:  leaf.digest.Clone(),
		LeafIndex: leaf.index,
		Siblings:  make([]ProofStep, 0, t.Depth()),
	}

	for _, level := range t.levels[:len(t.levels)-1] {
		var s ProofStep
		if pos&1 == 1 {
			s = ProofStep{Hash: t.nodes[level[pos-1]].digest, IsLeft: true}
		} else if pos+1 < len(level) {
			s = ProofStep{Hash: t.nodes[level[pos+1]].digest}
		} else {
			// Final node of an odd level, paired with itself.
			s = ProofStep{Hash: t.nodes[level[pos]].digest}
		}
		s.Hash = s.Hash.Clone()
		p.Siblings = append(p.Siblings, s)

		pos >>= 1
	}

	return p, nil
}

// Clone returns a deep copy of p.
func (p Proof) Clone() Proof {
	c := Proof{
		LeafHash:  p.LeafHash.Clone(),
		LeafIndex: p.LeafIndex,
		Siblings:  make([]ProofStep, len(p.Siblings)),
	}
	for i, s := range p.Siblings {
		c.Siblings[i] = ProofStep{Hash: s.Hash.Clone(), IsLeft: s.IsLeft}
	}
	return c
}

// Position returns the position in the padded leaf layer
// implied by the orientation of the proof's steps,
// or -1 if the proof is too long to name a position.
//
// For the duplicate of an odd final leaf,
// Position is one greater than LeafIndex.
func (p Proof) Position() int {
	if len(p.Siblings) > 62 {
		return -1
	}

	pos := 0
	for i, s := range p.Siblings {
		if s.IsLeft {
			pos |= 1 << i
		}
	}
	return pos
}

// proofWire is the CBOR layout of a Proof:
// a three-element array of the leaf hash, leaf index, and steps.
type proofWire struct {
	_ struct{} `cbor:",toarray"`

	LeafHash  []byte
	LeafIndex uint64
	Siblings  []stepWire
}

type stepWire struct {
	_ struct{} `cbor:",toarray"`

	Hash   []byte
	IsLeft bool
}

func (p Proof) MarshalCBOR() ([]byte, error) {
	if p.LeafIndex < 0 {
		return nil, fmt.Errorf("cannot encode proof with negative leaf index %d", p.LeafIndex)
	}

	w := proofWire{
		LeafHash:  p.LeafHash,
		LeafIndex: uint64(p.LeafIndex),
		Siblings:  make([]stepWire, len(p.Siblings)),
	}
	for i, s := range p.Siblings {
		w.Siblings[i] = stepWire{Hash: s.Hash, IsLeft: s.IsLeft}
	}

	return cbor.Marshal(w)
}

func (p *Proof) UnmarshalCBOR(data []byte) error {
	var w proofWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode proof: %w", err)
	}

	const maxInt = int(^uint(0) >> 1)
	if w.LeafIndex > uint64(maxInt) {
		return fmt.Errorf("proof leaf index %d overflows int", w.LeafIndex)
	}

	p.LeafHash = w.LeafHash
	p.LeafIndex = int(w.LeafIndex)
	p.Siblings = make([]ProofStep, len(w.Siblings))
	for i, s := range w.Siblings {
		p.Siblings[i] = ProofStep{Hash: s.Hash, IsLeft: s.IsLeft}
	}
	return nil
}
