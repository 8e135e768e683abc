package core

import "github.com/prometheus/client_golang/prometheus"

// Telemetry mirrors the teacher's HealthLogger shape (core/system_health_
// logging.go): a private prometheus.Registry plus named gauges/counters,
// updated directly by the components that own the numbers instead of via
// a push/pull scrape loop this package doesn't run.
type Telemetry struct {
	Registry *prometheus.Registry

	StepsExecuted      prometheus.Counter
	ResourcesLive      prometheus.Gauge
	DomainsRegistered  prometheus.Gauge
	DecisionsFinalized prometheus.Counter
	EffectsStored      prometheus.Counter
}

// NewTelemetry wires a fresh, isolated registry so multiple Machines/
// ContentStores/UnifiedRouters in the same process (tests, in particular)
// never collide on metric names.
func NewTelemetry() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		Registry: reg,
		StepsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causality_machine_steps_executed_total",
			Help: "Total register machine instructions executed.",
		}),
		ResourcesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "causality_resources_live",
			Help: "Current live resource count in the resource store.",
		}),
		DomainsRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "causality_domains_registered",
			Help: "Current registered domain count in the router.",
		}),
		DecisionsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causality_committee_decisions_finalized_total",
			Help: "Total committee decisions finalized.",
		}),
		EffectsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causality_effects_stored_total",
			Help: "Total effects persisted to the content store.",
		}),
	}
	reg.MustRegister(t.StepsExecuted, t.ResourcesLive, t.DomainsRegistered, t.DecisionsFinalized, t.EffectsStored)
	return t
}
