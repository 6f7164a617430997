package health_test

import (
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/health"
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestProbe_ReportsRelayStatus(t *testing.T) {
	req := require.New(t)
	srv := health.NewServer("127.0.0.1:0", logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	defer func() {
		cancel()
		req.NoError(<-done)
	}()

	// Given a relay that is not ready yet
	status, err := health.Probe(ctx, srv.Addr().String(), 2*time.Second)
	req.NoError(err)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, status)

	// When the relay starts accepting
	srv.SetServing(true)

	// Then the probe sees it serving
	status, err = health.Probe(ctx, srv.Addr().String(), 2*time.Second)
	req.NoError(err)
	req.Equal(healthpb.HealthCheckResponse_SERVING, status)
}

func TestProbe_Unreachable(t *testing.T) {
	req := require.New(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	addr := listener.Addr().String()
	req.NoError(listener.Close())

	_, err = health.Probe(context.Background(), addr, 300*time.Millisecond)
	req.ErrorIs(err, errors.ErrRelayUnavailable)
}
