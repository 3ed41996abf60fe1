// Package metrics exposes the daemon's Prometheus instrumentation
// (SPEC_FULL.md §4.9). A single Registry is created at startup by New
// and handed to both the admin HTTP API's /metrics route and
// the components that record against it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every collector the daemon exposes.
type Registry struct {
	reg *prometheus.Registry

	SessionsActive    prometheus.Gauge
	SessionsTotal      prometheus.Counter
	CommandsTotal       *prometheus.CounterVec
	CriticalEventsTotal *prometheus.CounterVec
	SensorTicksTotal    prometheus.Counter
	RateLimitedTotal    prometheus.Counter
}

// New constructs and registers every collector.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sentinel",
			Name:      "sessions_active",
			Help:      "Number of currently connected operator sessions.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "sessions_total",
			Help:      "Total number of operator sessions accepted.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "commands_total",
			Help:      "Total number of protocol commands dispatched, by command name.",
		}, []string{"command"}),
		CriticalEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "critical_events_total",
			Help:      "Total number of Critical health evaluations, by unit.",
		}, []string{"unit"}),
		SensorTicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "sensor_ticks_total",
			Help:      "Total number of fast-cadence acquisition ticks performed.",
		}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "rate_limited_total",
			Help:      "Total number of commands rejected by the per-session rate limiter.",
		}),
	}

	reg.MustRegister(
		r.SessionsActive,
		r.SessionsTotal,
		r.CommandsTotal,
		r.CriticalEventsTotal,
		r.SensorTicksTotal,
		r.RateLimitedTotal,
	)
	return r
}

// Gatherer exposes the underlying registry for an HTTP handler to serve.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
