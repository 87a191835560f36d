// Package metrics records store activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for FetchTotal.
const (
	OutcomeRequest = "request"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors registered for one store.
type Metrics struct {
	ActionsTotal *prometheus.CounterVec
	FetchTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which tests use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odlv_actions_dispatched_total",
			Help: "Total number of actions dispatched to the store by type",
		}, []string{"type"}),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odlv_fetch_total",
			Help: "Total number of fetch lifecycle transitions by resource, verb and outcome",
		}, []string{"resource", "verb", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.ActionsTotal, m.FetchTotal)
	}
	return m
}

// IncAction records one dispatched action.
func (m *Metrics) IncAction(actionType string) {
	if m == nil {
		return
	}
	if actionType == "" {
		actionType = "unknown"
	}
	m.ActionsTotal.WithLabelValues(actionType).Inc()
}

// IncFetch records one fetch transition.
func (m *Metrics) IncFetch(resource, verb, outcome string) {
	if m == nil {
		return
	}
	if resource == "" {
		resource = "unknown"
	}
	m.FetchTotal.WithLabelValues(resource, verb, outcome).Inc()
}
