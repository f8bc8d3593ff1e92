package htchunk

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/klauspost/reedsolomon"
)

// MaxShards is the largest total number of data and parity shards
// that Split will produce.
const MaxShards = (1 << 16) - 1

// SplitConfig is the config for [Split].
type SplitConfig struct {
	// Maximum size, in bytes, of each shard.
	// When parity is requested and more than 256 shards are required,
	// the effective size is rounded down to a multiple of 64.
	ChunkSize int

	// ParityRatio indicates the desired ratio of
	// parity shards to data shards.
	// For example, ParityRatio=0.25 means there will be
	// one parity shard for every four data shards.
	// The parity count is rounded down
	// if the ratio does not result in a whole number.
	ParityRatio float32

	// Whether to snappy-compress the payload before splitting.
	Compress bool
}

// Meta describes how a payload was split.
// A [Reassembler] needs the same Meta to rebuild the payload.
type Meta struct {
	NumData, NumParity int

	// The size of the payload that was split,
	// after compression if Compressed is set.
	// Shards are zero-padded past this size.
	PayloadSize int

	Compressed bool
}

// NumShards returns the total count of data and parity shards.
func (m Meta) NumShards() int {
	return m.NumData + m.NumParity
}

// Chunks is the result of [Split].
type Chunks struct {
	Meta

	// The data shards followed by the parity shards,
	// all of identical length.
	Shards [][]byte
}

// Split converts data into equally sized data shards
// plus erasure-coded parity shards,
// suitable as the blocks of a [hashtree.Tree].
func Split(data []byte, cfg SplitConfig) (Chunks, error) {
	if cfg.ChunkSize <= 0 {
		return Chunks{}, fmt.Errorf("chunk size must be positive (got %d)", cfg.ChunkSize)
	}
	if cfg.ParityRatio < 0 {
		return Chunks{}, fmt.Errorf("parity ratio must be non-negative (got %g)", cfg.ParityRatio)
	}

	if len(data) == 0 {
		return Chunks{}, fmt.Errorf("cannot split payload: %w", hashtree.ErrEmptyInput)
	}

	payload := data
	if cfg.Compress {
		payload = snappy.Encode(nil, data)
	}

	chunkSize := cfg.ChunkSize
	nData, nParity := shardCounts(len(payload), chunkSize, cfg.ParityRatio)

	if nParity > 0 && nData+nParity > 256 {
		// Beyond 256 shards the encoder switches to a field
		// that works on 64-byte aligned shards.
		chunkSize -= chunkSize % 64
		if chunkSize == 0 {
			return Chunks{}, fmt.Errorf(
				"chunk size %d too small for %d shards: minimum is 64",
				cfg.ChunkSize, nData+nParity,
			)
		}
		nData, nParity = shardCounts(len(payload), chunkSize, cfg.ParityRatio)
	}

	if nData+nParity > MaxShards {
		return Chunks{}, fmt.Errorf(
			"payload too large: resulted in %d data and %d parity shards, but limit is %d",
			nData, nParity, MaxShards,
		)
	}

	var shards [][]byte
	if nParity == 0 {
		// The large-field encoder rejects zero parity shards,
		// and there is nothing to encode anyway.
		shards = splitData(payload, nData)
	} else {
		enc, err := reedsolomon.New(
			nData, nParity,
			reedsolomon.WithAutoGoroutines(chunkSize),
		)
		if err != nil {
			return Chunks{}, fmt.Errorf(
				"failed to build Reed-Solomon encoder: %w", err,
			)
		}

		shards, err = enc.Split(payload)
		if err != nil {
			return Chunks{}, fmt.Errorf(
				"failed to split payload into shards: %w", err,
			)
		}

		if err := enc.Encode(shards); err != nil {
			return Chunks{}, fmt.Errorf(
				"failed to erasure-code payload: %w", err,
			)
		}
	}

	return Chunks{
		Meta: Meta{
			NumData:   nData,
			NumParity: nParity,

			PayloadSize: len(payload),
			Compressed:  cfg.Compress,
		},
		Shards: shards,
	}, nil
}

func shardCounts(payloadSize, chunkSize int, parityRatio float32) (nData, nParity int) {
	nData = payloadSize / chunkSize
	if payloadSize%chunkSize > 0 {
		nData++
	}
	nParity = int(parityRatio * float32(nData))
	return nData, nParity
}

// splitData cuts payload into nData zero-padded shards of equal length,
// the same layout the encoder's Split produces.
func splitData(payload []byte, nData int) [][]byte {
	perShard := (len(payload) + nData - 1) / nData

	buf := make([]byte, perShard*nData)
	copy(buf, payload)

	shards := make([][]byte, nData)
	for i := range shards {
		shards[i] = buf[i*perShard : (i+1)*perShard : (i+1)*perShard]
	}
	return shards
}

// Tree builds a [hashtree.Tree] with one leaf per shard.
func (c Chunks) Tree(h hthash.Hasher) (*hashtree.Tree, error) {
	return hashtree.Build(h, c.Shards)
}
