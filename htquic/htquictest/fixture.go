package htquictest

import (
	"context"
	"testing"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/htchunk"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/htquic"
	"github.com/gordian-engine/hashtree/internal/htest"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/require"
)

// Fixture is a running [*htquic.Server] on a loopback address
// with a connected [*htquic.Client].
type Fixture struct {
	TLS TLSConfigs

	Listener *quic.Listener
	Server   *htquic.Server

	// The client's side of the connection.
	Conn   quic.Connection
	Client *htquic.Client
}

// FixtureConfig is the configuration passed to [NewFixture].
type FixtureConfig struct {
	Tree   *hashtree.Tree
	Chunks *htchunk.Meta

	// The hasher the client verifies with.
	// Defaults to the tree's own hasher.
	Hasher hthash.Hasher

	// Optional trusted root for the client.
	Root hthash.Digest
}

// NewFixture starts a server and dials it.
// The server is stopped and the connection and listener are closed
// as part of [*testing.T.Cleanup].
func NewFixture(t *testing.T, ctx context.Context, cfg FixtureConfig) *Fixture {
	t.Helper()

	tlsConfs, err := GenerateTLSConfigs()
	require.NoError(t, err)

	ql, err := quic.ListenAddr("127.0.0.1:0", tlsConfs.Server, nil)
	require.NoError(t, err)

	sCtx, cancel := context.WithCancel(ctx)

	s := htquic.NewServer(sCtx, htest.NewLogger(t).With("sys", "server"), htquic.ServerConfig{
		Listener: ql,
		Tree:     cfg.Tree,
		Chunks:   cfg.Chunks,
	})

	conn, err := quic.DialAddr(ctx, ql.Addr().String(), tlsConfs.Client, nil)
	if err != nil {
		cancel()
		s.Wait()
		_ = ql.Close()
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = conn.CloseWithError(0, "")
		cancel()
		s.Wait()
		_ = ql.Close()
	})

	h := cfg.Hasher
	if h == nil {
		h = cfg.Tree.Hasher()
	}

	return &Fixture{
		TLS: tlsConfs,

		Listener: ql,
		Server:   s,

		Conn: conn,
		Client: htquic.NewClient(htquic.ClientConfig{
			Conn:   conn,
			Hasher: h,
			Root:   cfg.Root,
		}),
	}
}
