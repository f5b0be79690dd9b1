// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Advisor
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_buywait_decisions_total",
			Help: "Buy/wait decisions by outcome and rule",
		},
		[]string{"decision", "rule"},
	)

	FlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_flags_total",
			Help: "Trip flags emitted by code and severity",
		},
		[]string{"code", "severity"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripopt_evaluation_duration_seconds",
			Help:    "Time spent evaluating one page of options",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Price history
	TrendLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_trend_lookups_total",
			Help: "Route trend lookups by outcome (hit, miss, error, open)",
		},
		[]string{"outcome"},
	)

	ObservationsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_price_observations_total",
			Help: "Price observations written to history",
		},
		[]string{"status"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripopt_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Search cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)

	// Providers
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripopt_provider_requests_total",
			Help: "Provider search calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripopt_provider_duration_seconds",
			Help:    "Provider search latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"provider"},
	)

	// HTTP
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripopt_http_rate_limited_total",
			Help: "Requests rejected by the client rate limiter",
		},
	)
)

// ObserveProvider records one provider call.
func ObserveProvider(provider string, took time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderRequests.WithLabelValues(provider, status).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(took.Seconds())
}
