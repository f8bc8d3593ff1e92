package htquic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/quic-go/quic-go"
)

// DefaultMaxResponseSize is the response size limit
// used when [ClientConfig.MaxResponseSize] is zero.
const DefaultMaxResponseSize = 16 << 20

// Client requests leaves from a [Server] and verifies their proofs.
//
// Client methods are safe for concurrent use.
type Client struct {
	conn   quic.Connection
	hasher hthash.Hasher

	maxResponseSize int

	mu   sync.Mutex
	root hthash.Digest
}

// ClientConfig is the configuration passed to [NewClient].
type ClientConfig struct {
	// An established connection to a server.
	// The caller retains ownership of the connection.
	Conn quic.Connection

	// Hasher must match the hasher the server's tree was built with.
	Hasher hthash.Hasher

	// The trusted root to verify leaves against.
	// If empty, the root from the first successful
	// [*Client.Summary] call is trusted instead.
	Root hthash.Digest

	// Upper bound on the size of a single response.
	// Defaults to [DefaultMaxResponseSize].
	MaxResponseSize int
}

// NewClient returns a new Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Conn == nil {
		panic(errors.New("BUG: ClientConfig.Conn must not be nil"))
	}
	if cfg.Hasher == nil {
		panic(errors.New("BUG: ClientConfig.Hasher must not be nil"))
	}

	maxSize := cfg.MaxResponseSize
	if maxSize <= 0 {
		maxSize = DefaultMaxResponseSize
	}

	return &Client{
		conn:   cfg.Conn,
		hasher: cfg.Hasher,

		maxResponseSize: maxSize,

		root: cfg.Root.Clone(),
	}
}

// Summary requests the server's tree summary.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	resp, err := c.roundTrip(ctx, []byte{requestSummary})
	if err != nil {
		return Summary{}, err
	}
	if resp.Summary == nil {
		return Summary{}, errors.New("summary response missing summary")
	}

	s := resp.Summary.summary()

	c.mu.Lock()
	if c.root == nil {
		c.root = s.Root.Clone()
	}
	c.mu.Unlock()

	return s, nil
}

// Leaf requests the leaf at the given position in the padded leaf layer
// and verifies it against the trusted root.
//
// If the proof does not verify, or it proves a different position,
// the returned error wraps [ErrProofMismatch].
func (c *Client) Leaf(ctx context.Context, pos int) (Leaf, error) {
	if pos < 0 || uint64(pos) > uint64(^uint32(0)) {
		return Leaf{}, fmt.Errorf("leaf position %d cannot be requested", pos)
	}

	root, err := c.trustedRoot(ctx)
	if err != nil {
		return Leaf{}, err
	}

	resp, err := c.roundTrip(ctx, appendLeafRequest(nil, uint32(pos)))
	if err != nil {
		return Leaf{}, err
	}
	if resp.Leaf == nil {
		return Leaf{}, errors.New("leaf response missing leaf")
	}

	l := Leaf{
		Data:  resp.Leaf.Data,
		Proof: resp.Leaf.Proof,
	}

	if got := l.Proof.Position(); got != pos {
		return Leaf{}, fmt.Errorf(
			"%w: requested position %d but proof is for position %d",
			ErrProofMismatch, pos, got,
		)
	}
	if !hashtree.VerifyLeaf(c.hasher, l.Data, l.Proof, root) {
		return Leaf{}, fmt.Errorf("%w: position %d", ErrProofMismatch, pos)
	}

	return l, nil
}

func (c *Client) trustedRoot(ctx context.Context) (hthash.Digest, error) {
	c.mu.Lock()
	root := c.root
	c.mu.Unlock()

	if root != nil {
		return root, nil
	}

	s, err := c.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to learn root: %w", err)
	}

	// A concurrent Summary call may have pinned a root first.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.root == nil {
		c.root = s.Root.Clone()
	}
	return c.root, nil
}

// roundTrip sends req on a new stream and decodes the single response.
// Any non-OK status is returned as a [StatusError].
func (c *Client) roundTrip(ctx context.Context, req []byte) (response, error) {
	st, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return response{}, fmt.Errorf("failed to open stream: %w", err)
	}

	if dl, ok := ctx.Deadline(); ok {
		if err := st.SetDeadline(dl); err != nil {
			return response{}, fmt.Errorf("failed to set stream deadline: %w", err)
		}
	}

	// Unblock reads and writes if ctx is canceled mid-request.
	stop := context.AfterFunc(ctx, func() {
		st.CancelRead(quic.StreamErrorCode(errCodeShutdown))
		st.CancelWrite(quic.StreamErrorCode(errCodeShutdown))
	})
	defer stop()

	if _, err := st.Write(req); err != nil {
		return response{}, fmt.Errorf("failed to write request: %w", err)
	}
	if err := st.Close(); err != nil {
		return response{}, fmt.Errorf("failed to close send side of stream: %w", err)
	}

	b, err := io.ReadAll(io.LimitReader(st, int64(c.maxResponseSize)+1))
	if err != nil {
		if ctx.Err() != nil {
			return response{}, context.Cause(ctx)
		}
		return response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if len(b) > c.maxResponseSize {
		st.CancelRead(quic.StreamErrorCode(errCodeProtocol))
		return response{}, fmt.Errorf(
			"response exceeded maximum size of %d bytes", c.maxResponseSize,
		)
	}

	var resp response
	if err := cbor.Unmarshal(b, &resp); err != nil {
		return response{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.Status != StatusOK {
		return response{}, StatusError{Status: resp.Status, Message: resp.Message}
	}

	return resp, nil
}
