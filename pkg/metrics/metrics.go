// Package metrics exposes run progress as Prometheus metrics. The endpoint
// is read-only and optional; a batch run without scraping infrastructure
// simply never starts it.
package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psantana5/mlbatch/pkg/models"
)

// Metrics tracks per-phase job outcomes for one pipeline run
type Metrics struct {
	registry *prometheus.Registry

	jobsCompleted *prometheus.CounterVec
	jobsFailed    *prometheus.CounterVec
	jobsSkipped   *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	currentPhase  prometheus.Gauge
}

// New creates a metrics set on a private registry
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.jobsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mlbatch_jobs_completed_total",
		Help: "Jobs that ran to successful completion, by phase",
	}, []string{"phase"})
	m.jobsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mlbatch_jobs_failed_total",
		Help: "Jobs that terminated with an error, by phase",
	}, []string{"phase"})
	m.jobsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mlbatch_jobs_skipped_total",
		Help: "Jobs skipped on resume because a completion marker existed, by phase",
	}, []string{"phase"})
	m.jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mlbatch_job_duration_seconds",
		Help:    "Wall-clock duration of executed jobs, by phase",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"phase"})
	m.currentPhase = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mlbatch_current_phase",
		Help: "Ordinal of the phase currently executing (0 when idle)",
	})

	m.registry.MustRegister(m.jobsCompleted, m.jobsFailed, m.jobsSkipped,
		m.jobDuration, m.currentPhase)
	return m
}

// ObserveJob records one executed job's outcome and duration
func (m *Metrics) ObserveJob(d models.JobDescriptor, err error, elapsed time.Duration) {
	phase := d.Phase.Tag
	if err != nil {
		m.jobsFailed.WithLabelValues(phase).Inc()
	} else {
		m.jobsCompleted.WithLabelValues(phase).Inc()
	}
	m.jobDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// AddSkipped records jobs filtered out by the resume check
func (m *Metrics) AddSkipped(phaseTag string, n int) {
	if n > 0 {
		m.jobsSkipped.WithLabelValues(phaseTag).Add(float64(n))
	}
}

// SetPhase records the currently executing phase ordinal
func (m *Metrics) SetPhase(ordinal int) {
	m.currentPhase.Set(float64(ordinal))
}

// Handler returns the scrape handler for the private registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics endpoint in the background. Listen errors are
// reported on the returned channel; the server runs for the remainder of the
// process (a batch run has no graceful-shutdown phase to hook).
func (m *Metrics) Serve(addr string) <-chan error {
	r := mux.NewRouter()
	r.Handle("/metrics", m.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- http.ListenAndServe(addr, r)
	}()
	return errCh
}
