package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for queries and export artifacts.
type Metrics struct {
	Queries          *prometheus.CounterVec // labels: outcome={success,rejected,failed}
	QueryDuration    prometheus.Histogram
	VariablesQueried *prometheus.CounterVec // labels: variable
	UnknownVariables prometheus.Counter

	// Sample source metrics.
	SampleRequests *prometheus.CounterVec // labels: provider, outcome={success,error}

	// Artifact lifecycle metrics.
	ArtifactsCreated   prometheus.Counter
	ArtifactsServed    prometheus.Counter
	DeliveryFailures   prometheus.Counter
	ArtifactsOrphaned  prometheus.Counter
	ArtifactsPending   prometheus.Gauge
	ArtifactBytes      prometheus.Histogram
	StaleArtifactCount prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Queries,
		m.QueryDuration,
		m.VariablesQueried,
		m.UnknownVariables,
		m.SampleRequests,
		m.ArtifactsCreated,
		m.ArtifactsServed,
		m.DeliveryFailures,
		m.ArtifactsOrphaned,
		m.ArtifactsPending,
		m.ArtifactBytes,
		m.StaleArtifactCount,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics outside the default registry. Tests
// use it to avoid "already registered" panics; the CLI uses it because
// nothing scrapes a one-shot process.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "queries_total",
			Help:      "Likelihood queries by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_odds",
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete query including sampling and statistics.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		VariablesQueried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "variables_evaluated_total",
			Help:      "Variables evaluated, by key.",
		}, []string{"variable"}),
		UnknownVariables: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "unknown_variables_total",
			Help:      "Requested variable keys skipped because they are not registered.",
		}),
		SampleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "sample_requests_total",
			Help:      "Sample series requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ArtifactsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "artifacts_created_total",
			Help:      "Export artifacts written to the store.",
		}),
		ArtifactsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "artifacts_served_total",
			Help:      "Export artifacts fully delivered and retired.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "artifact_delivery_failures_total",
			Help:      "Artifact downloads that failed midway; the artifact is retained.",
		}),
		ArtifactsOrphaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "artifacts_orphaned_total",
			Help:      "Artifacts delivered but not deleted afterwards.",
		}),
		ArtifactsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_odds",
			Name:      "artifacts_pending",
			Help:      "Artifacts in the store at the last audit.",
		}),
		ArtifactBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_odds",
			Name:      "artifact_size_bytes",
			Help:      "Size of generated export artifacts.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		StaleArtifactCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_odds",
			Name:      "artifacts_stale",
			Help:      "Artifacts older than the audit threshold at the last audit.",
		}),
	}
}
