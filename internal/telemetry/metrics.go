package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds all Prometheus metrics for thesisrun.
type MetricsRegistry struct {
	StageDuration *prometheus.HistogramVec

	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	CandidatesDiscovered prometheus.Histogram
	GapsRecorded         *prometheus.CounterVec

	ActiveRuns prometheus.Gauge
	TotalRuns  prometheus.Counter
}

// NewMetricsRegistry creates and registers all thesisrun metrics on reg.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	m := &MetricsRegistry{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thesisrun_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"stage", "result"},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thesisrun_provider_requests_total",
				Help: "Total external provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thesisrun_provider_errors_total",
				Help: "Total provider errors by provider and reason",
			},
			[]string{"provider", "reason"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thesisrun_cache_hits_total",
				Help: "Total cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thesisrun_cache_misses_total",
				Help: "Total cache misses by cache type",
			},
			[]string{"cache_type"},
		),
		CandidatesDiscovered: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "thesisrun_candidates_discovered",
				Help:    "Candidate count per discovery run",
				Buckets: []float64{0, 1, 3, 5, 10, 15, 25, 40},
			},
		),
		GapsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thesisrun_gaps_total",
				Help: "Non-fatal gaps recorded by kind",
			},
			[]string{"kind"},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "thesisrun_active_runs",
				Help: "Pipeline runs currently in flight",
			},
		),
		TotalRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "thesisrun_runs_total",
				Help: "Total pipeline runs",
			},
		),
	}

	reg.MustRegister(
		m.StageDuration,
		m.ProviderRequests,
		m.ProviderErrors,
		m.CacheHits,
		m.CacheMisses,
		m.CandidatesDiscovered,
		m.GapsRecorded,
		m.ActiveRuns,
		m.TotalRuns,
	)
	return m
}

// ObserveStage records one stage execution.
func (m *MetricsRegistry) ObserveStage(stage string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StageDuration.WithLabelValues(stage, result).Observe(time.Since(start).Seconds())
}

var (
	defaultRegistry *MetricsRegistry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry backed by the default Prometheus
// registerer.
func Default() *MetricsRegistry {
	defaultOnce.Do(func() {
		defaultRegistry = NewMetricsRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}
