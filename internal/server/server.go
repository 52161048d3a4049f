// Package server implements the one-shot observation server.
//
// DESIGN: The exchange is deliberately one-way. A session has three
// states - Connected, Sent, Closed - and no read side: on accept the
// handler snapshots the journal, encodes it, writes the bytes and closes
// the connection gracefully. Connection close is the end-of-stream marker
// the client decodes on, so there is no length prefix and no framing
// beyond the record grammar.
//
// A write failure abandons only that session. The producer and every
// other session are unaffected.
package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchwire/watchwire/internal/journal"
	"github.com/watchwire/watchwire/internal/monitoring"
	"github.com/watchwire/watchwire/internal/record"
)

// Config contains listener settings.
type Config struct {
	Host string `yaml:"host"` // bind interface
	Port int    `yaml:"port"` // 0 picks an ephemeral port

	// WriteTimeout bounds the outbound write of one session.
	// Zero disables the deadline.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Server accepts inbound connections and answers each with a snapshot of
// the journal.
type Server struct {
	cfg     Config
	journal *journal.Journal
	metrics *monitoring.Metrics

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New creates a server backed by the given journal. metrics may be nil.
func New(cfg Config, j *journal.Journal, metrics *monitoring.Metrics) *Server {
	return &Server{cfg: cfg, journal: j, metrics: metrics}
}

// Listen binds the listener. Call before Serve; Addr is valid afterwards.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("Observation server listening")
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight sessions to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	// done releases the watcher on every return path, not only on
	// context cancellation; the second Close is a harmless no-op.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = ln.Close()
	}()

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = err
			}
			break
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}

	s.wg.Wait()
	if acceptErr != nil {
		return acceptErr
	}
	log.Info().Msg("Observation server stopped")
	return nil
}

// ListenAndServe binds and serves in one call.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// handle runs one session: Connected -> Sent -> Closed.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	ctx = monitoring.WithSessionIDContext(ctx, uuid.New().String())
	logger := log.With().
		Str("session_id", monitoring.SessionIDFromContext(ctx)).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	logger.Debug().Msg("Session connected")

	snapshot := s.journal.Snapshot()
	data := record.Encode(snapshot)

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}

	if _, err := conn.Write(data); err != nil {
		logger.Warn().Err(err).Msg("Session write failed, abandoning")
		if s.metrics != nil {
			s.metrics.RecordSession(0, true)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordSession(len(snapshot), false)
	}
	logger.Debug().Int("records", len(snapshot)).Msg("Session sent, closing")
}
