/*
metrics.go - Prometheus instrumentation for the API layer

PURPOSE:
  Counts residency evaluations by test and outcome, status-store writes,
  and estate calculation latency. Exposed on /metrics by the router.
  All methods are nil-safe so tests can run without a registry.
*/
package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the API layer.
type Metrics struct {
	// Residency evaluations by test and outcome
	Evaluations *prometheus.CounterVec

	// Status store writes by operation
	StatusWrites *prometheus.CounterVec

	// Estate calculation latency, cache hits included
	CalculationDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered on the default
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "estate_engine_evaluations_total",
			Help: "Residency and domicile evaluations by test and outcome",
		}, []string{"test", "outcome"}),

		StatusWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "estate_engine_status_writes_total",
			Help: "Tax status store writes by operation",
		}, []string{"operation"}),

		CalculationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "estate_engine_calculation_duration_seconds",
			Help:    "Duration of estate calculations including valuation and gift allocation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementEvaluation records one residency/domicile evaluation.
func (m *Metrics) IncrementEvaluation(test, outcome string) {
	if m != nil {
		m.Evaluations.WithLabelValues(test, outcome).Inc()
	}
}

// IncrementStatusWrite records a status store write.
func (m *Metrics) IncrementStatusWrite(operation string) {
	if m != nil {
		m.StatusWrites.WithLabelValues(operation).Inc()
	}
}

// ObserveCalculation records an estate calculation duration.
func (m *Metrics) ObserveCalculation(d time.Duration) {
	if m != nil {
		m.CalculationDuration.Observe(d.Seconds())
	}
}
