package htquic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/htchunk"
	"github.com/gordian-engine/hashtree/hthash"
)

// NextProto is the ALPN protocol identifier
// that both the server and client TLS configs must carry.
const NextProto = "hashtree/1"

// Request kinds, sent as the first byte of every stream.
const (
	requestSummary byte = 0x01
	requestLeaf    byte = 0x02
)

// Status is the outcome of a single request.
type Status uint8

const (
	StatusOK Status = iota
	StatusBadRequest
	StatusNotFound
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadRequest:
		return "bad request"
	case StatusNotFound:
		return "not found"
	case StatusInternal:
		return "internal error"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Application error codes used when closing connections.
const (
	errCodeShutdown uint64 = 0x00
	errCodeProtocol uint64 = 0x01
)

// Summary describes the tree a [Server] publishes.
type Summary struct {
	Root hthash.Digest

	NumLeaves       int
	NumPaddedLeaves int

	// Set only if the server's leaves are shards from [htchunk.Split].
	Chunks *htchunk.Meta
}

// Leaf is a verified leaf returned from [*Client.Leaf].
type Leaf struct {
	Data  []byte
	Proof hashtree.Proof
}

// response is the single message a server writes on a stream.
type response struct {
	Status  Status `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint,omitempty"`

	Summary *summaryWire `cbor:"3,keyasint,omitempty"`
	Leaf    *leafWire    `cbor:"4,keyasint,omitempty"`
}

type summaryWire struct {
	Root      []byte `cbor:"1,keyasint"`
	NumLeaves uint32 `cbor:"2,keyasint"`
	NumPadded uint32 `cbor:"3,keyasint"`

	Chunks *chunkMetaWire `cbor:"4,keyasint,omitempty"`
}

type chunkMetaWire struct {
	NumData     uint16 `cbor:"1,keyasint"`
	NumParity   uint16 `cbor:"2,keyasint"`
	PayloadSize uint64 `cbor:"3,keyasint"`
	Compressed  bool   `cbor:"4,keyasint,omitempty"`
}

type leafWire struct {
	Data  []byte         `cbor:"1,keyasint"`
	Proof hashtree.Proof `cbor:"2,keyasint"`
}

func summaryToWire(s Summary) *summaryWire {
	w := &summaryWire{
		Root:      s.Root,
		NumLeaves: uint32(s.NumLeaves),
		NumPadded: uint32(s.NumPaddedLeaves),
	}
	if s.Chunks != nil {
		w.Chunks = &chunkMetaWire{
			NumData:     uint16(s.Chunks.NumData),
			NumParity:   uint16(s.Chunks.NumParity),
			PayloadSize: uint64(s.Chunks.PayloadSize),
			Compressed:  s.Chunks.Compressed,
		}
	}
	return w
}

func (w *summaryWire) summary() Summary {
	s := Summary{
		Root:            w.Root,
		NumLeaves:       int(w.NumLeaves),
		NumPaddedLeaves: int(w.NumPadded),
	}
	if w.Chunks != nil {
		s.Chunks = &htchunk.Meta{
			NumData:     int(w.Chunks.NumData),
			NumParity:   int(w.Chunks.NumParity),
			PayloadSize: int(w.Chunks.PayloadSize),
			Compressed:  w.Chunks.Compressed,
		}
	}
	return s
}

func appendLeafRequest(dst []byte, pos uint32) []byte {
	dst = append(dst, requestLeaf)
	return binary.BigEndian.AppendUint32(dst, pos)
}

// errUnknownRequest is returned from readRequest
// when the first byte is not a known request kind.
var errUnknownRequest = errors.New("unknown request kind")

// readRequest reads one request from r.
// The returned position is only meaningful for leaf requests.
func readRequest(r io.Reader) (kind byte, pos uint32, err error) {
	var buf [5]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, 0, fmt.Errorf("failed to read request kind: %w", err)
	}

	switch buf[0] {
	case requestSummary:
		return requestSummary, 0, nil
	case requestLeaf:
		if _, err := io.ReadFull(r, buf[1:5]); err != nil {
			return 0, 0, fmt.Errorf("failed to read leaf position: %w", err)
		}
		return requestLeaf, binary.BigEndian.Uint32(buf[1:5]), nil
	default:
		return buf[0], 0, fmt.Errorf("%w 0x%02x", errUnknownRequest, buf[0])
	}
}
