package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the DOL
// correlation engine.
type Metrics struct {
	PropertiesProcessed prometheus.Counter
	PropertyFailures    prometheus.Counter
	BatchRunning        prometheus.Gauge

	// Per-source fetch metrics.
	SourceFetches      *prometheus.CounterVec   // labels: source, outcome={success,unavailable}
	SourceFetchSeconds *prometheus.HistogramVec // labels: source

	// Normalization metrics.
	EventsNormalized prometheus.Counter
	EventsRejected   prometheus.Counter

	// Batch ingestion metrics.
	BatchDuration  prometheus.Histogram
	IntelPublished prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PropertiesProcessed,
		m.PropertyFailures,
		m.BatchRunning,
		m.SourceFetches,
		m.SourceFetchSeconds,
		m.EventsNormalized,
		m.EventsRejected,
		m.BatchDuration,
		m.IntelPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PropertiesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_dol",
			Name:      "properties_processed_total",
			Help:      "Total property pipeline runs that completed.",
		}),
		PropertyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_dol",
			Name:      "property_failures_total",
			Help:      "Total property pipeline runs that failed.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_dol",
			Name:      "batch_running",
			Help:      "1 while a batch ingestion pass is active.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_dol",
			Name:      "source_fetch_total",
			Help:      "Feed fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceFetchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storm_dol",
			Name:      "source_fetch_duration_seconds",
			Help:      "Feed fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		EventsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_dol",
			Name:      "events_normalized_total",
			Help:      "Canonical events that survived normalization.",
		}),
		EventsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_dol",
			Name:      "events_rejected_total",
			Help:      "Raw events dropped for missing or invalid location/time.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_dol",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete batch ingestion pass.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		IntelPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_dol",
			Name:      "intel_published_total",
			Help:      "WeatherIntel results published to the sink topic.",
		}),
	}
}
