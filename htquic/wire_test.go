package htquic

import (
	"bytes"
	"io"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/gordian-engine/hashtree/htchunk"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	t.Parallel()

	kind, _, err := readRequest(bytes.NewReader([]byte{requestSummary}))
	require.NoError(t, err)
	require.Equal(t, requestSummary, kind)

	kind, pos, err := readRequest(bytes.NewReader(appendLeafRequest(nil, 0x01020304)))
	require.NoError(t, err)
	require.Equal(t, requestLeaf, kind)
	require.Equal(t, uint32(0x01020304), pos)

	_, _, err = readRequest(bytes.NewReader([]byte{requestLeaf, 0, 1}))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = readRequest(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)

	_, _, err = readRequest(bytes.NewReader([]byte{0x7f}))
	require.ErrorIs(t, err, errUnknownRequest)
}

func TestSummaryWire(t *testing.T) {
	t.Parallel()

	for _, s := range []Summary{
		{
			Root:            htsha256.Sum([]byte("root")),
			NumLeaves:       5,
			NumPaddedLeaves: 6,
		},
		{
			Root:            htsha256.Sum([]byte("chunked")),
			NumLeaves:       15,
			NumPaddedLeaves: 16,
			Chunks: &htchunk.Meta{
				NumData:     10,
				NumParity:   5,
				PayloadSize: 999,
				Compressed:  true,
			},
		},
	} {
		b, err := cbor.Marshal(response{Status: StatusOK, Summary: summaryToWire(s)})
		require.NoError(t, err)

		var resp response
		require.NoError(t, cbor.Unmarshal(b, &resp))
		require.NotNil(t, resp.Summary)
		require.Nil(t, resp.Leaf)
		require.Equal(t, s, resp.Summary.summary())
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "not found", StatusNotFound.String())
	require.Equal(t, "Status(42)", Status(42).String())

	err := StatusError{Status: StatusBadRequest, Message: "nope"}
	require.Equal(t, `server responded with status "bad request": nope`, err.Error())
}
