package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, which keeps unit tests free of registries.
type Metrics struct {
	// Upload outcomes: accepted, rejected
	Uploads *prometheus.CounterVec

	// Verification outcomes: all_match, mismatch, failed, stale
	VerificationOutcome *prometheus.CounterVec
	VerificationLatency prometheus.Histogram

	// Pin operations by kind (file, metadata) and outcome
	PinOutcome *prometheus.CounterVec

	// Mint flow outcomes by terminal stage
	MintOutcome *prometheus.CounterVec
	MintLatency prometheus.Histogram

	ActiveSessions prometheus.Gauge
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_uploads_total",
			Help: "Files offered to the authenticate screen by outcome",
		}, []string{"outcome"}),

		VerificationOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_verification_outcomes_total",
			Help: "Verification attempts by outcome",
		}, []string{"outcome"}),

		VerificationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "academia_verification_duration_seconds",
			Help:    "Duration of verification calls including the comparison",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 2.5, 5, 10},
		}),

		PinOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_pin_operations_total",
			Help: "Pinning calls by kind and outcome",
		}, []string{"kind", "outcome"}),

		MintOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_mint_outcomes_total",
			Help: "Mint attempts by terminal stage",
		}, []string{"stage"}),

		MintLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "academia_mint_duration_seconds",
			Help:    "Duration of the full pin-and-mint flow",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "academia_sessions_active",
			Help: "Upload sessions currently held in memory",
		}),
	}
}

// IncUpload records an upload outcome.
func (m *Metrics) IncUpload(outcome string) {
	if m != nil {
		m.Uploads.WithLabelValues(outcome).Inc()
	}
}

// ObserveVerification records a verification outcome and its duration.
func (m *Metrics) ObserveVerification(outcome string, d time.Duration) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(outcome).Inc()
		m.VerificationLatency.Observe(d.Seconds())
	}
}

// IncPin records a pinning call.
func (m *Metrics) IncPin(kind, outcome string) {
	if m != nil {
		m.PinOutcome.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveMint records the terminal stage of a mint attempt and its duration.
func (m *Metrics) ObserveMint(stage string, d time.Duration) {
	if m != nil {
		m.MintOutcome.WithLabelValues(stage).Inc()
		m.MintLatency.Observe(d.Seconds())
	}
}

// SetActiveSessions records the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}
