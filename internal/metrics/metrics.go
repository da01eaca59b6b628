// Package metrics exposes Prometheus collectors for the chat pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcomes used as the "outcome" label.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeRefused   = "refused"
)

type Metrics struct {
	turns              *prometheus.CounterVec
	tokens             prometheus.Counter
	retrieved          prometheus.Histogram
	extractionFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docchat_turns_total",
			Help: "Chat turns by outcome.",
		}, []string{"outcome"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docchat_tokens_consumed_total",
			Help: "Provider tokens consumed by completed turns.",
		}),
		retrieved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docchat_retrieved_chunks",
			Help:    "Chunks selected as context per query.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docchat_extraction_failures_total",
			Help: "Files that could not be turned into text.",
		}),
	}
	for _, c := range []prometheus.Collector{m.turns, m.tokens, m.retrieved, m.extractionFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Turn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Tokens(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tokens.Add(float64(n))
}

func (m *Metrics) Retrieved(n int) {
	if m == nil {
		return
	}
	m.retrieved.Observe(float64(n))
}

func (m *Metrics) ExtractionFailed() {
	if m == nil {
		return
	}
	m.extractionFailures.Inc()
}
