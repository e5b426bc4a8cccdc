package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the emitter module.
type Metrics struct {
	// Transmission outcomes by final classification
	TransmissionsTotal *prometheus.CounterVec

	// Token build (including signing) latency
	BuildLatency prometheus.Histogram

	// HTTP delivery latency
	TransmitLatency prometheus.Histogram
}

// New creates a new Metrics instance with all emitter metrics registered.
func New() *Metrics {
	return &Metrics{
		TransmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "setforge_transmissions_total",
			Help: "Total SET transmission attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "failed", "retryable", "error"

		BuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "setforge_set_build_duration_seconds",
			Help:    "Duration of SET assembly and signing",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		TransmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "setforge_set_transmit_duration_seconds",
			Help:    "Duration of SET HTTP delivery",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementOutcome records a transmission outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.TransmissionsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveBuildLatency records the duration of token assembly and signing.
func (m *Metrics) ObserveBuildLatency(d time.Duration) {
	if m != nil {
		m.BuildLatency.Observe(d.Seconds())
	}
}

// ObserveTransmitLatency records the duration of HTTP delivery.
func (m *Metrics) ObserveTransmitLatency(d time.Duration) {
	if m != nil {
		m.TransmitLatency.Observe(d.Seconds())
	}
}
