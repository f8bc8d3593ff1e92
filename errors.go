package hashtree

import (
	"errors"
	"strconv"
)

// ErrEmptyInput is returned when attempting to build a tree
// over zero data blocks.
var ErrEmptyInput = errors.New("cannot build tree over zero data blocks")

// LeafOutOfRangeError is returned when looking up a leaf position
// that is outside the padded leaf layer.
type LeafOutOfRangeError struct {
	Pos, Width int
}

func (e LeafOutOfRangeError) Error() string {
	return "leaf position " + strconv.Itoa(e.Pos) +
		" out of range [0, " + strconv.Itoa(e.Width) + ")"
}

// InvariantViolationError is the panic value used when
// the tree builder observes an impossible state.
// It always indicates a bug in this package, never bad input.
type InvariantViolationError struct {
	Msg string
}

func (e InvariantViolationError) Error() string {
	return "BUG: tree invariant violated: " + e.Msg
}
