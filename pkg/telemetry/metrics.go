package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for corrkit. A nil *Metrics, or one
// created with metrics disabled, records nothing.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	// Source metrics
	sourceBuilds  *prometheus.CounterVec
	sourceEntries *prometheus.GaugeVec
	filterErrors  prometheus.Counter

	// Alignment metrics
	alignments        *prometheus.CounterVec
	alignmentDuration *prometheus.HistogramVec
	matchedPairs      prometheus.Gauge
	recomputations    prometheus.Counter

	// Error metrics
	errorsByKind *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		sourceBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_builds_total",
				Help:      "Total number of data source builds",
			},
			[]string{"side", "status"},
		),
		sourceEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_entries",
				Help:      "Number of entries in the last built data source",
			},
			[]string{"side"},
		),
		filterErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_errors_total",
				Help:      "Total number of data filter evaluation errors",
			},
		),

		alignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alignments_total",
				Help:      "Total number of computed alignments",
			},
			[]string{"resolution"},
		),
		alignmentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "alignment_duration_seconds",
				Help:      "Duration of alignment computations in seconds",
				Buckets:   buckets,
			},
			[]string{"resolution"},
		),
		matchedPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "matched_pairs",
				Help:      "Number of matched pairs in the last alignment",
			},
		),
		recomputations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alignment_recomputations_total",
				Help:      "Total number of alignment cache invalidations",
			},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.runs,
		m.runDuration,
		m.sourceBuilds,
		m.sourceEntries,
		m.filterErrors,
		m.alignments,
		m.alignmentDuration,
		m.matchedPairs,
		m.recomputations,
		m.errorsByKind,
	)

	return m, nil
}

// Run Metrics

// RecordRun records a finished pipeline run.
func (m *Metrics) RecordRun(status string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Source Metrics

// RecordSourceBuild records a data source build. entries is ignored for
// failed builds.
func (m *Metrics) RecordSourceBuild(side, status string, entries int) {
	if m == nil || m.sourceBuilds == nil {
		return
	}
	m.sourceBuilds.WithLabelValues(side, status).Inc()
	if status == "succeeded" {
		m.sourceEntries.WithLabelValues(side).Set(float64(entries))
	}
}

// RecordFilterError records a data filter that failed to evaluate.
func (m *Metrics) RecordFilterError() {
	if m == nil || m.filterErrors == nil {
		return
	}
	m.filterErrors.Inc()
}

// Alignment Metrics

// RecordAlignment records one alignment computation.
func (m *Metrics) RecordAlignment(resolution string, pairs int, duration time.Duration) {
	if m == nil || m.alignments == nil {
		return
	}
	m.alignments.WithLabelValues(resolution).Inc()
	m.alignmentDuration.WithLabelValues(resolution).Observe(duration.Seconds())
	m.matchedPairs.Set(float64(pairs))
}

// RecordRecomputation records an invalidation of a cached alignment.
func (m *Metrics) RecordRecomputation() {
	if m == nil || m.recomputations == nil {
		return
	}
	m.recomputations.Inc()
}

// Error Metrics

// RecordError records an error by kind.
func (m *Metrics) RecordError(kind string) {
	if m == nil || m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// Registry returns the private registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves metrics on the configured listen address until
// ctx is cancelled. It returns immediately; serve errors are sent to the
// returned channel.
func (m *Metrics) StartMetricsServer(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	if m == nil || !m.config.Enabled || m.config.ListenAddress == "" {
		close(errCh)
		return errCh
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		defer close(errCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return errCh
}
