// Package metrics exposes Prometheus collectors for the session engine.
// A nil *Collectors is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lebensspur"

type Collectors struct {
	Polls         *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	Teardowns     *prometheus.CounterVec
	Actions       *prometheus.CounterVec
	TimeRemaining prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Status polls by result (ok, error, stale).",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result (ok, rejected, lockout, blocked, error).",
		}, []string{"result"}),
		Teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardowns_total",
			Help:      "Session teardowns by reason.",
		}, []string{"reason"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Mutating timer actions by action and result.",
		}, []string{"action", "result"}),
		TimeRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "time_remaining_seconds",
			Help:      "Remaining countdown as of the last poll.",
		}),
	}
	reg.MustRegister(c.Polls, c.Logins, c.Teardowns, c.Actions, c.TimeRemaining)
	return c
}

func (c *Collectors) Poll(result string) {
	if c == nil {
		return
	}
	c.Polls.WithLabelValues(result).Inc()
}

func (c *Collectors) Login(result string) {
	if c == nil {
		return
	}
	c.Logins.WithLabelValues(result).Inc()
}

func (c *Collectors) Teardown(reason string) {
	if c == nil {
		return
	}
	c.Teardowns.WithLabelValues(reason).Inc()
}

func (c *Collectors) Action(action, result string) {
	if c == nil {
		return
	}
	c.Actions.WithLabelValues(action, result).Inc()
}

func (c *Collectors) SetTimeRemaining(ms uint64) {
	if c == nil {
		return
	}
	c.TimeRemaining.Set(float64(ms) / 1000)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
