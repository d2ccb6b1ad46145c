package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the sync engine.
type Metrics struct {
	// Runs by mode and terminal status
	RunsTotal *prometheus.CounterVec

	// Per-record classification outcomes
	RecordsTotal *prometheus.CounterVec

	// End-to-end run latency by mode
	RunDuration *prometheus.HistogramVec

	// Directory change-feed pages consumed per delta run
	DeltaPages prometheus.Histogram
}

// New registers and returns the sync engine metrics.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dirsync_runs_total",
			Help: "Total sync runs by mode and terminal status",
		}, []string{"mode", "status"}),

		RecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dirsync_records_total",
			Help: "Total per-record sync outcomes",
		}, []string{"outcome"}),

		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dirsync_run_duration_seconds",
			Help:    "Duration of sync runs by mode",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"mode"}),

		DeltaPages: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dirsync_delta_pages",
			Help:    "Change-feed pages consumed per delta run",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(mode, status string, d time.Duration) {
	if m != nil {
		m.RunsTotal.WithLabelValues(mode, status).Inc()
		m.RunDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
}

// IncOutcome records one per-record outcome.
func (m *Metrics) IncOutcome(outcome string) {
	if m != nil {
		m.RecordsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveDeltaPages records how many pages a delta run consumed.
func (m *Metrics) ObserveDeltaPages(pages int) {
	if m != nil {
		m.DeltaPages.Observe(float64(pages))
	}
}
