package server

import (
	"chat-relay/codec"
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ConnectionState is the lifecycle step of one relay connection.
type ConnectionState string

const (
	StateListening ConnectionState = "LISTENING"
	StateAccepted  ConnectionState = "ACCEPTED"
	StateReading   ConnectionState = "READING"
	StatePersisted ConnectionState = "PERSISTED"
	StateRejected  ConnectionState = "REJECTED"
	StateClosed    ConnectionState = "CLOSED"
)

const acceptBackoff = 50 * time.Millisecond

// RelayServer receives one encoded message per TCP connection and hands it to a sink.
// Connections are served strictly one after the other: a peer that stalls
// without sending blocks the tier until it disconnects or the read timeout fires.
// Nothing is ever written back to the peer.
type RelayServer struct {
	addr        string
	sink        contract.Sink
	log         *slog.Logger
	readTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
}

// NewRelayServer builds a server for addr. A zero readTimeout disables the read deadline.
func NewRelayServer(addr string, sink contract.Sink, log *slog.Logger, readTimeout time.Duration) *RelayServer {
	return &RelayServer{addr: addr, sink: sink, log: log, readTimeout: readTimeout}
}

func (s *RelayServer) Name() string {
	return "RelayServer"
}

// Listen binds the listening socket. Run binds it itself when Listen was not called.
func (s *RelayServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *RelayServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run accepts connections until ctx is cancelled.
func (s *RelayServer) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer func() {
		stop()
		_ = listener.Close()
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	}()

	s.log.Info("Relay server listening", "addr", listener.Addr().String())
	for {
		s.log.Debug("Relay connection state", "state", StateListening)
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.log.Info("Relay server stopped")
				return nil
			}
			observability.RelayConnectionsTotal.WithLabelValues(observability.OutcomeAcceptFailed).Inc()
			s.log.Warn("Accept failed", "error", err)
			time.Sleep(acceptBackoff)
			continue
		}
		s.serve(ctx, conn)
	}
}

// serve runs one connection through Accepted, Reading, then Persisted or Rejected.
func (s *RelayServer) serve(ctx context.Context, conn net.Conn) {
	start := time.Now()
	log := s.log.With("remote", conn.RemoteAddr().String())
	defer func() {
		_ = conn.Close()
		observability.RelayConnectionDuration.Observe(time.Since(start).Seconds())
		log.Debug("Relay connection state", "state", StateClosed)
	}()

	// A stalled peer must not outlive shutdown.
	defer context.AfterFunc(ctx, func() { _ = conn.Close() })()

	log.Debug("Relay connection state", "state", StateAccepted)
	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			log.Warn("Unable to set read deadline", "error", err)
		}
	}

	log.Debug("Relay connection state", "state", StateReading)
	msg, err := codec.ReadMessage(conn)
	if err != nil {
		observability.RelayConnectionsTotal.WithLabelValues(observability.OutcomeRejected).Inc()
		log.Warn("Unable to decode payload", "state", StateRejected, "error", err)
		return
	}

	if err = s.sink.Consume(ctx, msg); err != nil {
		observability.RelayConnectionsTotal.WithLabelValues(observability.OutcomeStoreFailed).Inc()
		log.Error("Unable to persist message", "state", StateRejected, "error", err)
		return
	}

	observability.RelayConnectionsTotal.WithLabelValues(observability.OutcomePersisted).Inc()
	log.Debug("Relay connection state", "state", StatePersisted,
		"username", msg.Username, "timestamp", msg.Timestamp)
}
