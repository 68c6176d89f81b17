// Package metrics exposes Prometheus counters for exit decisions.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "adexit"

// Exit outcomes.
const (
	OutcomeNavigated      = "navigated"
	OutcomeTargetNotFound = "target_not_found"
	OutcomeFiltered       = "filtered"
	OutcomeExpandError    = "expand_error"
)

// Ping results.
const (
	PingSent    = "sent"
	PingFailed  = "failed"
	PingDropped = "dropped"
)

// Metrics holds the exit counters.
type Metrics struct {
	exits   *prometheus.CounterVec
	filters *prometheus.CounterVec
	pings   *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exits_total",
			Help:      "Exit invocations by outcome.",
		}, []string{"target", "outcome"}),
		filters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_evaluations_total",
			Help:      "Filter evaluations by filter name and verdict.",
		}, []string{"filter", "verdict"}),
		pings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_pings_total",
			Help:      "Tracking pings by transport and result.",
		}, []string{"transport", "result"}),
	}

	if reg != nil {
		reg.MustRegister(m.exits, m.filters, m.pings)
	}

	return m
}

// ObserveExit counts one exit invocation.
func (m *Metrics) ObserveExit(target, outcome string) {
	if m == nil {
		return
	}

	m.exits.WithLabelValues(target, outcome).Inc()
}

// ObserveFilter counts one filter verdict. Verdict is "pass", "fail" or
// "skipped" for fail-open lookups.
func (m *Metrics) ObserveFilter(name, verdict string) {
	if m == nil {
		return
	}

	m.filters.WithLabelValues(name, verdict).Inc()
}

// ObservePing counts one tracking ping.
func (m *Metrics) ObservePing(transport, result string) {
	if m == nil {
		return
	}

	m.pings.WithLabelValues(transport, result).Inc()
}

// Exits returns the exit counter for inspection.
func (m *Metrics) Exits() *prometheus.CounterVec { return m.exits }

// Filters returns the filter counter for inspection.
func (m *Metrics) Filters() *prometheus.CounterVec { return m.filters }

// Pings returns the ping counter for inspection.
func (m *Metrics) Pings() *prometheus.CounterVec { return m.pings }
