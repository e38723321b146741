package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the acquisition pipeline. The counters
// mirror the Monitor's in-memory aggregates so the external observability
// surface can scrape them without hitting the JSON health endpoints.
var (
	AcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisitions_total",
			Help: "Total acquisition attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	AcquisitionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_errors_total",
			Help: "Total acquisition errors by kind",
		},
		[]string{"kind"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_hits_total",
			Help: "Total content cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_misses_total",
			Help: "Total content cache misses",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	EnrichmentQuotaUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enrichment_quota_used",
			Help: "Deep-analysis calls consumed from today's quota",
		},
	)

	RepairOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_outcomes_total",
			Help: "Repair parser outcomes by winning strategy (or failure)",
		},
		[]string{"strategy"},
	)
)

// BreakerStateValue maps a breaker state name to its gauge encoding.
func BreakerStateValue(state string) float64 {
	switch state {
	case "HALF_OPEN":
		return 1
	case "OPEN":
		return 2
	default:
		return 0
	}
}
