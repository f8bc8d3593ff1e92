package hthashtest

import (
	"testing"

	"github.com/gordian-engine/hashtree/hthash"
	"github.com/stretchr/testify/require"
)

// HasherFactory returns a Hasher and the fixed size of its digests.
// A hashSize of zero indicates the Hasher produces variable-length digests,
// and the size assertions are skipped.
type HasherFactory func() (h hthash.Hasher, hashSize int)

func TestHasherCompliance(t *testing.T, f HasherFactory) {
	t.Run("leaf is deterministic", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		dst01 := h.Leaf([]byte("deterministic_data"), nil)
		dst02 := h.Leaf([]byte("deterministic_data"), nil)

		require.Equal(t, dst01, dst02)
	})

	t.Run("leaf respects input", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		dst01 := h.Leaf([]byte("hello 1"), nil)
		dst02 := h.Leaf([]byte("hello 2"), nil)

		require.NotEqual(t, dst01, dst02)
	})

	t.Run("leaf accepts empty input", func(t *testing.T) {
		t.Parallel()

		h, sz := f()

		out := h.Leaf(nil, nil)
		if sz > 0 {
			require.Len(t, out, sz)
		}
		require.Equal(t, out, h.Leaf([]byte{}, nil))
	})

	t.Run("node is deterministic", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		left := h.Leaf([]byte("left"), nil)
		right := h.Leaf([]byte("right"), nil)

		require.Equal(t, h.Node(left, right, nil), h.Node(left, right, nil))
	})

	t.Run("node respects order", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		left := h.Leaf([]byte("left"), nil)
		right := h.Leaf([]byte("right"), nil)

		require.NotEqual(t, h.Node(left, right, nil), h.Node(right, left, nil))
	})

	t.Run("output appends to dst", func(t *testing.T) {
		t.Parallel()

		h, sz := f()

		prefix := []byte("prefix")

		leaf := h.Leaf([]byte("data"), append([]byte(nil), prefix...))
		require.Equal(t, prefix, leaf[:len(prefix)])
		require.Equal(t, h.Leaf([]byte("data"), nil), leaf[len(prefix):])

		node := h.Node(leaf[len(prefix):], leaf[len(prefix):], append([]byte(nil), prefix...))
		require.Equal(t, prefix, node[:len(prefix)])

		if sz > 0 {
			require.Len(t, leaf, len(prefix)+sz)
			require.Len(t, node, len(prefix)+sz)
		}
	})

	t.Run("dst with spare capacity is not reallocated", func(t *testing.T) {
		t.Parallel()

		h, sz := f()
		if sz == 0 {
			t.Skip("variable-length hasher")
		}

		buf := make([]byte, 0, sz)
		out := h.Leaf([]byte("data"), buf)
		require.Len(t, out, sz)
		require.Same(t, &buf[:1][0], &out[0])
	})
}
