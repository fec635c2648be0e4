package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration coordinator.
type Metrics struct {
	// Registration outcomes, including failure codes
	Outcomes *prometheus.CounterVec

	// Ledger submission latency including the confirmation wait
	SubmitLatency prometheus.Histogram
}

// New creates a new Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docproof_registration_outcomes_total",
			Help: "Total registration outcomes by result",
		}, []string{"outcome"}), // outcome: "registered", "already_registered", error codes

		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docproof_registration_ledger_submit_duration_seconds",
			Help:    "Duration of ledger submission including confirmation wait",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60, 120},
		}),
	}
}

// IncrementOutcome records a registration outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

// ObserveSubmitLatency records the ledger submission duration.
func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}
