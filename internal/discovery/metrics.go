package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// providerAttemptsTotal counts provider outcomes in the fallback chain
	providerAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_provider_attempts_total",
			Help: "Provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_provider_retries_total",
			Help: "Retries of a single provider call",
		},
		[]string{"provider"},
	)

	// discoveryDuration covers the whole chain including enrichment
	discoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_request_duration_seconds",
			Help:    "Duration of discovery requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45, 90},
		},
		[]string{"result"},
	)

	enrichLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_enrich_lookups_total",
			Help: "Catalog title lookups by result",
		},
		[]string{"result"},
	)

	enrichMemoTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_enrich_memo_total",
			Help: "Enrichment memo hits and misses",
		},
		[]string{"result"},
	)
)
