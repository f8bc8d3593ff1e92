package htchunk_test

import (
	"bytes"
	"testing"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/htchunk"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/gordian-engine/hashtree/internal/htest"
	"github.com/stretchr/testify/require"
)

func TestSplit_shardCounts(t *testing.T) {
	t.Parallel()

	data := htest.RandomDataForTest(t, 1000)

	c, err := htchunk.Split(data, htchunk.SplitConfig{
		ChunkSize:   100,
		ParityRatio: 0.5,
	})
	require.NoError(t, err)

	require.Equal(t, 10, c.NumData)
	require.Equal(t, 5, c.NumParity)
	require.Equal(t, 15, c.NumShards())
	require.Equal(t, 1000, c.PayloadSize)
	require.False(t, c.Compressed)
	require.Len(t, c.Shards, 15)

	for _, s := range c.Shards {
		require.Len(t, s, 100)
	}

	// Data shards are the payload in order.
	require.Equal(t, data, bytes.Join(c.Shards[:c.NumData], nil))
}

func TestSplit_partialFinalShard(t *testing.T) {
	t.Parallel()

	data := htest.RandomDataForTest(t, 250)

	c, err := htchunk.Split(data, htchunk.SplitConfig{
		ChunkSize:   100,
		ParityRatio: 0.34,
	})
	require.NoError(t, err)

	require.Equal(t, 3, c.NumData)
	require.Equal(t, 1, c.NumParity) // Rounded down.
	require.Equal(t, 250, c.PayloadSize)

	joined := bytes.Join(c.Shards[:c.NumData], nil)
	require.Equal(t, data, joined[:250])
}

func TestSplit_noParity(t *testing.T) {
	t.Parallel()

	c, err := htchunk.Split([]byte("hello world"), htchunk.SplitConfig{
		ChunkSize: 4,
	})
	require.NoError(t, err)

	require.Equal(t, 3, c.NumData)
	require.Zero(t, c.NumParity)
}

func TestSplit_empty(t *testing.T) {
	t.Parallel()

	_, err := htchunk.Split(nil, htchunk.SplitConfig{ChunkSize: 16})
	require.ErrorIs(t, err, hashtree.ErrEmptyInput)
}

func TestSplit_invalidConfig(t *testing.T) {
	t.Parallel()

	_, err := htchunk.Split([]byte("x"), htchunk.SplitConfig{})
	require.ErrorContains(t, err, "chunk size must be positive")

	_, err = htchunk.Split([]byte("x"), htchunk.SplitConfig{
		ChunkSize:   1,
		ParityRatio: -1,
	})
	require.ErrorContains(t, err, "parity ratio")
}

func TestSplit_manyShardsAlignChunkSize(t *testing.T) {
	t.Parallel()

	data := htest.RandomDataForTest(t, 300*100)

	c, err := htchunk.Split(data, htchunk.SplitConfig{
		ChunkSize:   100,
		ParityRatio: 0.1,
	})
	require.NoError(t, err)

	// 100 rounds down to 64 once there are more than 256 shards.
	require.Equal(t, (len(data)+63)/64, c.NumData)
	require.Greater(t, c.NumShards(), 256)
	for _, s := range c.Shards {
		require.Zero(t, len(s)%64)
	}
}

func TestSplit_chunkTooSmallForManyShards(t *testing.T) {
	t.Parallel()

	_, err := htchunk.Split(make([]byte, 300), htchunk.SplitConfig{
		ChunkSize:   1,
		ParityRatio: 0.1,
	})
	require.ErrorContains(t, err, "minimum is 64")
}

func TestSplit_noParityManyShards(t *testing.T) {
	t.Parallel()

	for _, n := range []int{256, 257, 300} {
		data := htest.RandomDataForTest(t, n*64)

		c, err := htchunk.Split(data, htchunk.SplitConfig{ChunkSize: 64})
		require.NoError(t, err, "n=%d", n)

		require.Equal(t, n, c.NumData)
		require.Zero(t, c.NumParity)
		require.Len(t, c.Shards, n)
		require.Equal(t, data, bytes.Join(c.Shards, nil))
	}

	// Without parity the chunk size is used as given.
	data := htest.RandomDataForTest(t, 1000)
	c, err := htchunk.Split(data, htchunk.SplitConfig{ChunkSize: 3})
	require.NoError(t, err)
	require.Equal(t, 334, c.NumData)
	for _, s := range c.Shards {
		require.Len(t, s, 3)
	}
	joined := bytes.Join(c.Shards, nil)
	require.Equal(t, data, joined[:1000])
	require.Equal(t, []byte{0, 0}, joined[1000:])
}

func TestSplit_tooManyShards(t *testing.T) {
	t.Parallel()

	_, err := htchunk.Split(make([]byte, 64*htchunk.MaxShards+1), htchunk.SplitConfig{
		ChunkSize: 64,
	})
	require.Error(t, err)
}

func TestChunks_Tree(t *testing.T) {
	t.Parallel()

	c, err := htchunk.Split(htest.RandomDataForTest(t, 700), htchunk.SplitConfig{
		ChunkSize:   100,
		ParityRatio: 0.5,
	})
	require.NoError(t, err)

	tree, err := c.Tree(htsha256.Hasher{})
	require.NoError(t, err)

	require.Equal(t, c.NumShards(), tree.NumLeaves())
	for i, s := range c.Shards {
		d, ok := tree.LeafData(i)
		require.True(t, ok)
		require.Equal(t, s, d)
	}
}
