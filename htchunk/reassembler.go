package htchunk

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/golang/snappy"
	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/klauspost/reedsolomon"
)

// Reassembler collects verified shards of a payload
// that was split with [Split].
//
// Reassembler methods are safe for concurrent use.
type Reassembler struct {
	log *slog.Logger

	hasher hthash.Hasher
	root   hthash.Digest
	meta   Meta

	enc reedsolomon.Encoder // Nil when there are no parity shards.

	mu     sync.Mutex
	shards [][]byte
	have   *bitset.BitSet
}

// ReassemblerConfig is the config for [NewReassembler].
type ReassemblerConfig struct {
	// The shard layout, as reported by the sender.
	Meta Meta

	// Hasher must match the hasher the sender built its tree with.
	Hasher hthash.Hasher

	// The trusted root digest of the sender's tree.
	Root hthash.Digest
}

// NewReassembler returns a Reassembler that accepts only chunks
// proven against cfg.Root.
//
// It returns an error only if cfg.Meta describes
// a shard layout the erasure coder cannot represent.
func NewReassembler(log *slog.Logger, cfg ReassemblerConfig) (*Reassembler, error) {
	if cfg.Hasher == nil {
		panic(fmt.Errorf("BUG: ReassemblerConfig.Hasher must not be nil"))
	}
	if len(cfg.Root) == 0 {
		panic(fmt.Errorf("BUG: ReassemblerConfig.Root must not be empty"))
	}

	m := cfg.Meta
	if m.NumData <= 0 || m.NumParity < 0 || m.NumShards() > MaxShards {
		return nil, fmt.Errorf(
			"invalid shard layout: %d data and %d parity shards",
			m.NumData, m.NumParity,
		)
	}
	if m.PayloadSize <= 0 {
		return nil, fmt.Errorf("invalid payload size %d", m.PayloadSize)
	}

	// Without parity there is nothing to reconstruct,
	// so the data shards are joined directly.
	var enc reedsolomon.Encoder
	if m.NumParity > 0 {
		var err error
		enc, err = reedsolomon.New(m.NumData, m.NumParity)
		if err != nil {
			return nil, fmt.Errorf("failed to build Reed-Solomon encoder: %w", err)
		}
	}

	return &Reassembler{
		log: log,

		hasher: cfg.Hasher,
		root:   cfg.Root.Clone(),
		meta:   m,

		enc: enc,

		shards: make([][]byte, m.NumShards()),
		have:   bitset.MustNew(uint(m.NumShards())),
	}, nil
}

// AddChunk verifies data against p and the configured root,
// and stores it if it is a shard not yet seen.
//
// The shard index is taken from p.LeafIndex,
// and it must agree with the position encoded in the proof's steps.
func (r *Reassembler) AddChunk(data []byte, p hashtree.Proof) error {
	n := r.meta.NumShards()
	idx := p.LeafIndex
	if idx < 0 || idx >= n {
		return ChunkOutOfRangeError{Index: idx, NumShards: n}
	}

	pos := p.Position()
	isOddDuplicate := n&1 == 1 && n > 1 && pos == n && idx == n-1
	if pos != idx && !isOddDuplicate {
		return fmt.Errorf(
			"%w: leaf index %d disagrees with proof position %d",
			ErrIncorrectChunk, idx, pos,
		)
	}

	r.mu.Lock()
	had := r.have.Test(uint(idx))
	r.mu.Unlock()
	if had {
		return ErrAlreadyHadChunk
	}

	// Verification happens without holding the lock.
	if !hashtree.VerifyLeaf(r.hasher, data, p, r.root) {
		return ErrIncorrectChunk
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have added the same chunk while we verified.
	if r.have.Test(uint(idx)) {
		return ErrAlreadyHadChunk
	}

	r.shards[idx] = bytes.Clone(data)
	r.have.Set(uint(idx))

	r.log.Debug(
		"Accepted chunk",
		"index", idx,
		"have", r.have.Count(),
		"need", r.meta.NumData,
	)

	return nil
}

// Have reports the number of distinct shards accepted so far.
func (r *Reassembler) Have() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.have.Count())
}

// Missing returns the indices of shards not yet accepted,
// in ascending order.
func (r *Reassembler) Missing() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, uint(r.meta.NumShards())-r.have.Count())
	for u, ok := r.have.NextClear(0); ok && u < uint(r.meta.NumShards()); u, ok = r.have.NextClear(u + 1) {
		out = append(out, int(u))
	}
	return out
}

// Ready reports whether enough shards have been accepted
// for [*Reassembler.Reconstruct] to succeed.
func (r *Reassembler) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.have.Count() >= uint(r.meta.NumData)
}

// Reconstruct rebuilds the original payload from the accepted shards.
// It returns [ErrNotReady] if [*Reassembler.Ready] would report false.
func (r *Reassembler) Reconstruct() ([]byte, error) {
	r.mu.Lock()
	if r.have.Count() < uint(r.meta.NumData) {
		r.mu.Unlock()
		return nil, ErrNotReady
	}

	// Reconstruction fills in nil entries,
	// so work on a shallow copy and leave our own view untouched.
	shards := make([][]byte, len(r.shards))
	copy(shards, r.shards)
	r.mu.Unlock()

	var payload []byte
	if r.enc == nil {
		// Ready guarantees every data shard is present.
		payload = bytes.Join(shards[:r.meta.NumData], nil)
		if len(payload) < r.meta.PayloadSize {
			return nil, fmt.Errorf(
				"failed to join data shards: have %d bytes, need %d",
				len(payload), r.meta.PayloadSize,
			)
		}
		payload = payload[:r.meta.PayloadSize]
	} else {
		if err := r.enc.ReconstructData(shards); err != nil {
			// Every stored shard was verified against the root,
			// so a failure here means the sender's Meta was wrong.
			return nil, fmt.Errorf("failed to reconstruct data shards: %w", err)
		}

		var buf bytes.Buffer
		buf.Grow(r.meta.PayloadSize)
		if err := r.enc.Join(&buf, shards, r.meta.PayloadSize); err != nil {
			return nil, fmt.Errorf("failed to join data shards: %w", err)
		}
		payload = buf.Bytes()
	}

	if !r.meta.Compressed {
		return payload, nil
	}

	out, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}
	return out, nil
}
