package htquic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/htchunk"
	"github.com/quic-go/quic-go"
)

// DefaultStreamTimeout is the per-stream deadline
// used when [ServerConfig.StreamTimeout] is zero.
const DefaultStreamTimeout = 5 * time.Second

// Server answers summary and leaf requests for a single [*hashtree.Tree].
//
// Instances must be created through [NewServer].
type Server struct {
	log *slog.Logger

	ql *quic.Listener

	tree    *hashtree.Tree
	summary Summary

	streamTimeout time.Duration

	// Tracks the accept loop, every connection worker,
	// and every in-flight stream handler.
	wg sync.WaitGroup
}

// ServerConfig is the configuration passed to [NewServer].
type ServerConfig struct {
	// The listener to accept connections from.
	// Its TLS config must include [NextProto].
	// The caller retains ownership and is responsible for closing it.
	Listener *quic.Listener

	// The tree to serve.
	Tree *hashtree.Tree

	// Optional chunk layout, when the tree's leaves
	// are shards produced by [htchunk.Split].
	Chunks *htchunk.Meta

	// Deadline for reading a request and writing its response.
	// Defaults to [DefaultStreamTimeout].
	StreamTimeout time.Duration
}

// NewServer returns a Server that begins accepting connections immediately.
// The given context controls the lifecycle of the Server.
func NewServer(ctx context.Context, log *slog.Logger, cfg ServerConfig) *Server {
	if cfg.Listener == nil {
		panic(errors.New("BUG: ServerConfig.Listener must not be nil"))
	}
	if cfg.Tree == nil {
		panic(errors.New("BUG: ServerConfig.Tree must not be nil"))
	}
	if uint64(cfg.Tree.NumPaddedLeaves()) > math.MaxUint32 {
		panic(fmt.Errorf(
			"BUG: tree with %d leaves cannot be addressed by uint32 positions",
			cfg.Tree.NumPaddedLeaves(),
		))
	}

	timeout := cfg.StreamTimeout
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}

	s := &Server{
		log: log,

		ql: cfg.Listener,

		tree: cfg.Tree,
		summary: Summary{
			Root:            cfg.Tree.Root(),
			NumLeaves:       cfg.Tree.NumLeaves(),
			NumPaddedLeaves: cfg.Tree.NumPaddedLeaves(),
			Chunks:          cfg.Chunks,
		},

		streamTimeout: timeout,
	}

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	return s
}

// Wait blocks until all of s's background work has finished.
// The background work will begin stopping once the context
// passed to [NewServer] is canceled.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) acceptConnections(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.ql.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info(
					"Stopping due to context cancellation",
					"cause", context.Cause(ctx),
				)
				return
			}

			s.log.Info("Stopping due to accept failure", "err", err)
			return
		}

		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn quic.Connection) {
	defer s.wg.Done()

	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Debug("Accepted connection")

	for {
		st, err := conn.AcceptStream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				_ = conn.CloseWithError(
					quic.ApplicationErrorCode(errCodeShutdown), "server shutting down",
				)
			} else {
				log.Debug("Connection ended", "err", err)
			}
			return
		}

		s.wg.Add(1)
		go s.handleStream(log, st)
	}
}

func (s *Server) handleStream(log *slog.Logger, st quic.Stream) {
	defer s.wg.Done()

	if err := st.SetDeadline(time.Now().Add(s.streamTimeout)); err != nil {
		log.Debug("Failed to set stream deadline", "err", err)
		st.CancelRead(quic.StreamErrorCode(errCodeProtocol))
		st.CancelWrite(quic.StreamErrorCode(errCodeProtocol))
		return
	}

	resp := s.respond(log, st)

	b, err := cbor.Marshal(resp)
	if err != nil {
		panic(fmt.Errorf("BUG: failed to encode response: %w", err))
	}

	if _, err := st.Write(b); err != nil {
		log.Debug("Failed to write response", "err", err)
		st.CancelWrite(quic.StreamErrorCode(errCodeProtocol))
		return
	}

	if err := st.Close(); err != nil {
		log.Debug("Failed to close stream", "err", err)
	}
}

func (s *Server) respond(log *slog.Logger, st quic.Stream) response {
	kind, pos, err := readRequest(st)
	if err != nil {
		log.Debug("Rejecting malformed request", "err", err)
		return response{Status: StatusBadRequest, Message: err.Error()}
	}

	switch kind {
	case requestSummary:
		return response{Status: StatusOK, Summary: summaryToWire(s.summary)}

	case requestLeaf:
		leaf, ok := s.tree.Leaf(int(pos))
		if !ok {
			return response{
				Status: StatusNotFound,
				Message: hashtree.LeafOutOfRangeError{
					Pos: int(pos), Width: s.tree.NumPaddedLeaves(),
				}.Error(),
			}
		}

		p, err := s.tree.Proof(int(pos))
		if err != nil {
			panic(fmt.Errorf(
				"BUG: no proof for position %d after finding its leaf: %w", pos, err,
			))
		}

		log.Debug("Serving leaf", "pos", pos, "index", leaf.Index)
		return response{
			Status: StatusOK,
			Leaf: &leafWire{
				Data:  leaf.Data,
				Proof: p,
			},
		}

	default:
		panic(fmt.Errorf("BUG: unhandled request kind 0x%02x", kind))
	}
}
