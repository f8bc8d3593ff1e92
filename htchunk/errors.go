package htchunk

import (
	"errors"
	"fmt"
)

// ErrAlreadyHadChunk is returned from [*Reassembler.AddChunk]
// when the chunk at the proof's leaf index was already accepted.
var ErrAlreadyHadChunk = errors.New("already had chunk")

// ErrIncorrectChunk is returned from [*Reassembler.AddChunk]
// when the chunk data and proof do not hash to the expected root.
var ErrIncorrectChunk = errors.New("chunk failed proof verification")

// ErrNotReady is returned from [*Reassembler.Reconstruct]
// when fewer chunks than data shards have been accepted.
var ErrNotReady = errors.New("not enough chunks to reconstruct payload")

// ChunkOutOfRangeError is returned from [*Reassembler.AddChunk]
// when a proof's leaf index does not name any shard.
type ChunkOutOfRangeError struct {
	Index, NumShards int
}

func (e ChunkOutOfRangeError) Error() string {
	return fmt.Sprintf("chunk index %d out of range [0, %d)", e.Index, e.NumShards)
}
