package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics counts update attempt outcomes. The agent is a batch job, so
// counters are published through a pushgateway rather than scraped.
type Metrics struct {
	registry *prometheus.Registry

	Attempts prometheus.Counter
	Applied  prometheus.Counter
	Failed   prometheus.Counter
	Reverts  prometheus.Counter
}

func New(objectType string) *Metrics {
	labels := prometheus.Labels{"object_type": objectType}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orm_update_attempts_total",
			Help:        "Update attempts started.",
			ConstLabels: labels,
		}),
		Applied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orm_updates_applied_total",
			Help:        "Updates swapped in and terminated normally.",
			ConstLabels: labels,
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orm_updates_failed_total",
			Help:        "Update attempts that ended in the failure path.",
			ConstLabels: labels,
		}),
		Reverts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orm_reverts_total",
			Help:        "Reverts of the archived previous generation.",
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(m.Attempts, m.Applied, m.Failed, m.Reverts)

	return m
}

// Push publishes the counters to the given pushgateway endpoint.
func (m *Metrics) Push(endpoint string) error {
	return push.New(endpoint, "orm_update").Gatherer(m.registry).Push()
}
