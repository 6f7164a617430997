package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	// SubmissionsTotal counts form submissions by how far they went.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of form submissions by outcome",
		},
		[]string{"outcome"},
	)

	// StaticContentMismatchTotal counts static files served whose content sniffs
	// as another type than their extension declares.
	StaticContentMismatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_static_content_mismatch_total",
			Help: "Total number of static files served with content not matching their extension",
		},
		[]string{"file"},
	)

	RelayConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_connections_total",
			Help: "Total number of relay connections by outcome",
		},
		[]string{"outcome"},
	)

	RelayConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_connection_duration_seconds",
			Help:    "Time spent serving one relay connection",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Outcome labels shared by the intake and relay counters.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalid      = "invalid"
	OutcomeRelayFailed  = "relay_failed"
	OutcomeLogFailed    = "log_failed"
	OutcomePersisted    = "persisted"
	OutcomeRejected     = "rejected"
	OutcomeStoreFailed  = "store_failed"
	OutcomeAcceptFailed = "accept_failed"
)
