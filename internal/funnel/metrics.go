package funnel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "funnel"

// Metrics counts what the funnel decides. A nil *Metrics records nothing.
type Metrics struct {
	messages     *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	reservations *prometheus.CounterVec
	commits      *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	contexts     *prometheus.CounterVec
}

// NewMetrics registers the funnel counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages handled, by classified intent.",
		}, []string{"intent"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Session stage changes.",
		}, []string{"from", "to"}),
		reservations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation attempts, by outcome.",
		}, []string{"outcome"}),
		commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Order commits, by outcome.",
		}, []string{"outcome"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_fallback_total",
			Help:      "Fallback classifier calls, by outcome.",
		}, []string{"outcome"}),
		contexts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_source_total",
			Help:      "Verified context sources; none means the safe reply was used.",
		}, []string{"source"}),
	}
}

func (m *Metrics) message(intent string) {
	if m != nil {
		m.messages.WithLabelValues(intent).Inc()
	}
}

func (m *Metrics) transition(from, to string) {
	if m != nil {
		m.transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) reservation(outcome string) {
	if m != nil {
		m.reservations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) commit(outcome string) {
	if m != nil {
		m.commits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) fallback(outcome string) {
	if m != nil {
		m.fallbacks.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) contextSource(source string) {
	if m != nil {
		m.contexts.WithLabelValues(source).Inc()
	}
}
