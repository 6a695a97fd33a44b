package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transaction metrics
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_relay_transactions_total",
			Help: "Total number of push transactions, labelled by outcome",
		},
		[]string{"outcome"},
	)

	PayloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_relay_payload_bytes_total",
			Help: "Total bytes of decoded exposition payloads received",
		},
	)

	// Pipeline stage metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_relay_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	LintFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_relay_lint_failures_total",
			Help: "Total number of lint-stage failures, labelled by reason",
		},
		[]string{"reason"},
	)

	ForwardFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_relay_forward_failures_total",
			Help: "Total number of forward-stage failures, labelled by reason",
		},
		[]string{"reason"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_relay_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"source"},
	)
)
