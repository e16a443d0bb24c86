package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxbot_http_requests_total",
			Help: "Total HTTP requests served by the ops server",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mxbot_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mxbot_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// Pipeline Metrics
var (
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxbot_downloads_total",
			Help: "Delivered downloads by backend and media kind",
		},
		[]string{"backend", "kind"},
	)

	DownloadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxbot_download_failures_total",
			Help: "Failed acquisition requests by failure class",
		},
		[]string{"reason"},
	)

	DownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mxbot_download_bytes_total",
			Help: "Total bytes delivered to users",
		},
	)
)

// Verification Metrics
var (
	VerificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxbot_verification_outcomes_total",
			Help: "Verification confirm outcomes",
		},
		[]string{"outcome"},
	)
)

// Session Metrics
var (
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxbot_session_transitions_total",
			Help: "Provider session state transitions by target state",
		},
		[]string{"state"},
	)
)

// Broadcast Metrics
var (
	BroadcastsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mxbot_broadcast_messages_total",
			Help: "Broadcast messages delivered",
		},
	)
)
