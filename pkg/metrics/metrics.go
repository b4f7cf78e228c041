package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the claimer.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ClaimsTotal         *prometheus.CounterVec
	ClaimDuration       *prometheus.HistogramVec
	FeedItemsTotal      *prometheus.CounterVec
	ItemErrorsTotal     *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		ClaimsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steam_claims_total",
				Help: "Processed candidates by resulting ledger status.",
			},
			[]string{"status"}, // existed, claimed, failed
		),
		ClaimDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "steam_claim_duration_seconds",
				Help:    "Duration of a single claim procedure.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
			},
			[]string{"status"},
		),
		FeedItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steam_feed_items_total",
				Help: "Feed items seen, by source and outcome.",
			},
			[]string{"source", "outcome"}, // outcome: skipped, claimed, deferred, other, error
		),
		ItemErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steam_item_errors_total",
				Help: "Errors raised while processing an item.",
			},
			[]string{"source", "error_type"},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steam_runs_total",
				Help: "Completed runs by result.",
			},
			[]string{"result"}, // success, failure, interrupted
		),
	}
}

// NewNop returns metrics registered on a private registry, for callers that
// do not expose them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
