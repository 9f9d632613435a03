// Package metrics exposes Prometheus instrumentation for extraction runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for FieldsTotal.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Run status labels for RunsTotal.
const (
	RunSuccess  = "success"
	RunError    = "error"
	RunCanceled = "canceled"
)

var (
	fieldsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formmcp_fields_total",
			Help: "Total number of fields processed",
		},
		[]string{"outcome", "reason"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formmcp_runs_total",
			Help: "Total number of extraction runs",
		},
		[]string{"status"},
	)

	fieldDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formmcp_field_duration_seconds",
			Help:    "Time to resolve, condition, recognize and judge one field",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	recognitionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formmcp_recognition_confidence",
			Help:    "Confidence of the best reading per field",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)
)

// ObserveField records one finished field. reason is empty when accepted.
func ObserveField(accepted bool, reason string, elapsed time.Duration) {
	outcome := OutcomeAccepted
	if !accepted {
		outcome = OutcomeRejected
	}
	fieldsTotal.WithLabelValues(outcome, reason).Inc()
	fieldDuration.Observe(elapsed.Seconds())
}

// ObserveConfidence records the confidence of a reading.
func ObserveConfidence(confidence float64) {
	recognitionConfidence.Observe(confidence)
}

// ObserveRun records a finished run.
func ObserveRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
