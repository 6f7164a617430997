package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// MetricsServer exposes /metrics and /health/live on their own listener,
// away from the routes served to users.
type MetricsServer struct {
	addr        string
	serviceName string
	log         *slog.Logger
}

func NewMetricsServer(addr, serviceName string, log *slog.Logger) *MetricsServer {
	return &MetricsServer{addr: addr, serviceName: serviceName, log: log}
}

func (m *MetricsServer) Name() string {
	return "MetricsServer"
}

func (m *MetricsServer) Handler() http.Handler {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return router
}

func (m *MetricsServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: m.Handler(), ReadHeaderTimeout: shutdownTimeout}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	m.log.Info("Metrics server listening", "service", m.serviceName, "addr", listener.Addr().String())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
