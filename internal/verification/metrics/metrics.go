package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification coordinator.
type Metrics struct {
	// Verification outcomes: verified, not_registered, diverged, error codes
	Outcomes *prometheus.CounterVec

	// Ledger verification latency including the confirmation wait
	VerifyLatency prometheus.Histogram
}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docproof_verification_outcomes_total",
			Help: "Total verification outcomes by result",
		}, []string{"outcome"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docproof_verification_ledger_verify_duration_seconds",
			Help:    "Duration of ledger verification including confirmation wait",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60, 120},
		}),
	}
}

// IncrementOutcome records a verification outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

// ObserveVerifyLatency records the ledger verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
