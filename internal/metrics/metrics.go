// Package metrics provides Prometheus metrics for sync runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpArchive        = "archive"
	OpCreate         = "create"
	OpUpdate         = "update"
	OpReplaceContent = "replace_content"
)

var (
	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdnotion_sync_runs_total",
			Help: "Total number of sync runs by outcome",
		},
		[]string{"status"},
	)

	syncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdnotion_sync_operations_total",
			Help: "Total number of page operations applied to the remote store",
		},
		[]string{"op"},
	)

	syncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mdnotion_sync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	documents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mdnotion_documents",
			Help: "Number of markdown documents loaded by the last run",
		},
	)
)

// RecordRun records the outcome and duration of a run.
func RecordRun(status string, d time.Duration) {
	syncRunsTotal.WithLabelValues(status).Inc()
	syncRunDuration.Observe(d.Seconds())
}

// RecordOperations adds n applied operations of kind op.
func RecordOperations(op string, n int) {
	if n > 0 {
		syncOperationsTotal.WithLabelValues(op).Add(float64(n))
	}
}

// SetDocuments sets the loaded document gauge.
func SetDocuments(n int) {
	documents.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
