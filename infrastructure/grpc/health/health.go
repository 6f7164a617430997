// Package health exposes the relay readiness over the standard gRPC health protocol.
package health

import (
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RelayService is the service name reported by the relay process.
const RelayService = "chat-relay.Relay"

type Server struct {
	addr   string
	log    *slog.Logger
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(addr string, log *slog.Logger) *Server {
	h := health.NewServer()
	h.SetServingStatus(RelayService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{addr: addr, log: log, health: h}
}

func (s *Server) Name() string {
	return "HealthServer"
}

// SetServing flips the relay status reported to probes.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(RelayService, status)
	s.log.Debug("Relay health status updated", "status", status.String())
}

func (s *Server) Listen() error {
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

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves the health service until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, s.health)

	stop := context.AfterFunc(ctx, func() {
		s.health.Shutdown()
		grpcServer.GracefulStop()
	})
	defer func() {
		stop()
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	}()

	s.log.Info("Health server listening", "addr", listener.Addr().String())
	if err := grpcServer.Serve(listener); err != nil {
		return err
	}
	return nil
}

// Probe dials addr and returns the relay serving status.
// It fails with ErrRelayUnavailable when no connection is ready within timeout.
func Probe(ctx context.Context, addr string, timeout time.Duration) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  100 * time.Millisecond,
				Multiplier: 1.6,
				Jitter:     0.2,
				MaxDelay:   3 * time.Second,
			},
		}),
	)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			break
		}
		if !conn.WaitForStateChange(probeCtx, state) {
			return healthpb.HealthCheckResponse_UNKNOWN, errors.ErrRelayUnavailable
		}
	}

	resp, err := healthpb.NewHealthClient(conn).Check(probeCtx, &healthpb.HealthCheckRequest{Service: RelayService})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("%w: %v", errors.ErrRelayUnavailable, err)
	}
	return resp.GetStatus(), nil
}
