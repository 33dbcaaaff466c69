package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes recorded on RunsTotal.
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeDegraded   = "degraded"
	OutcomeExhausted  = "exhausted"
	OutcomeSuperseded = "superseded"
	OutcomeInProgress = "in_progress"
	OutcomeFailed     = "failed"
)

// Metrics holds the Prometheus collectors for report runs and upstream fetches.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome
	RunAttempts     prometheus.Histogram
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Upstream fetch metrics.
	UpstreamErrors   *prometheus.CounterVec   // labels: source={sensor,weather,tide}
	UpstreamDuration *prometheus.HistogramVec // labels: source
	GridpointCache   *prometheus.CounterVec   // labels: result={hit,miss}

	LastRating *prometheus.GaugeVec // labels: location

	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunAttempts,
		m.RunDuration,
		m.PipelineRunning,
		m.UpstreamErrors,
		m.UpstreamDuration,
		m.GridpointCache,
		m.LastRating,
		m.ReportsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "runs_total",
			Help:      "Report runs by terminal outcome.",
		}, []string{"outcome"}),
		RunAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "surf_report",
			Name:      "run_attempts",
			Help:      "Sensor attempts consumed per run.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 30, 45, 60},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "surf_report",
			Name:      "run_duration_seconds",
			Help:      "Wall time from run start to terminal state.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900, 1800, 3600},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surf_report",
			Name:      "runs_in_flight",
			Help:      "Number of report runs currently executing.",
		}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "upstream_errors_total",
			Help:      "Failed upstream refreshes by source.",
		}, []string{"source"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "surf_report",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream refresh duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}),
		GridpointCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "nws_gridpoint_cache_total",
			Help:      "NWS gridpoint cache lookups by result.",
		}, []string{"result"}),
		LastRating: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "surf_report",
			Name:      "last_rating",
			Help:      "Rating of the most recently written report per location.",
		}, []string{"location"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "reports_published_total",
			Help:      "Report events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "publish_errors_total",
			Help:      "Report events that failed to publish.",
		}),
	}
}
