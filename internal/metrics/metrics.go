// Package metrics holds the daemon's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Set bundles the daemon's collectors with their registry.
type Set struct {
	Registry *prometheus.Registry

	MessagesIngested prometheus.Counter
	ReconcileRuns    prometheus.Counter
	ToastsEmitted    *prometheus.CounterVec
	OutboxSent       prometheus.Counter
	OutboxFailed     prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		Registry: reg,
		MessagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mesa_messages_ingested_total",
			Help: "Chat messages observed from the remote store.",
		}),
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mesa_cart_reconcile_runs_total",
			Help: "Cart reconciliation passes executed.",
		}),
		ToastsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mesa_toasts_emitted_total",
			Help: "Toasts emitted, by kind.",
		}, []string{"kind"}),
		OutboxSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mesa_outbox_sent_total",
			Help: "Outbox messages delivered to the remote store.",
		}),
		OutboxFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mesa_outbox_failed_total",
			Help: "Outbox messages that failed to send.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		s.MessagesIngested,
		s.ReconcileRuns,
		s.ToastsEmitted,
		s.OutboxSent,
		s.OutboxFailed,
	)
	return s
}
