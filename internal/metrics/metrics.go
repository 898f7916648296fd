// Package metrics collects and exposes Prometheus metrics for sessions and route gates.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by session controllers and guards
type Recorder interface {
	RecordOperation(op, outcome string)
	RecordTransition(from, to string)
	RecordGateDecision(gate, decision string)
	RecordStaleEvent()
	SetActiveSessions(n int)
}

// Collector is the Prometheus-backed Recorder
type Collector struct {
	operations  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	gates       *prometheus.CounterVec
	staleEvents prometheus.Counter
	sessions    prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cgame_session_operations_total",
			Help: "Session controller operations by outcome",
		}, []string{"operation", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cgame_session_transitions_total",
			Help: "Session state transitions",
		}, []string{"from", "to"}),
		gates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cgame_route_gate_decisions_total",
			Help: "Route gate decisions",
		}, []string{"gate", "decision"}),
		staleEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cgame_session_stale_events_total",
			Help: "Identity events discarded because a newer event was already applied",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cgame_active_sessions",
			Help: "Browser sessions currently held in memory",
		}),
	}

	reg.MustRegister(
		c.operations,
		c.transitions,
		c.gates,
		c.staleEvents,
		c.sessions,
	)

	return c
}

func (c *Collector) RecordOperation(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) RecordTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) RecordGateDecision(gate, decision string) {
	c.gates.WithLabelValues(gate, decision).Inc()
}

func (c *Collector) RecordStaleEvent() {
	c.staleEvents.Inc()
}

func (c *Collector) SetActiveSessions(n int) {
	c.sessions.Set(float64(n))
}

// Nop discards all metrics
type Nop struct{}

func (Nop) RecordOperation(op, outcome string)       {}
func (Nop) RecordTransition(from, to string)         {}
func (Nop) RecordGateDecision(gate, decision string) {}
func (Nop) RecordStaleEvent()                        {}
func (Nop) SetActiveSessions(n int)                  {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

// Handler returns the Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
