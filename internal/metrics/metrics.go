// Package metrics exposes store and query activity as Prometheus series,
// recorded through the lifecycle hooks of the store and the query binding.
package metrics

import (
	"net/http"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist (tests, embedded use).
type Metrics struct {
	Registry *prometheus.Registry

	Dispatches       *prometheus.CounterVec
	QueryTransitions *prometheus.CounterVec
	QueryDuration    prometheus.Histogram
}

// New creates and registers the homeview series. Runtime collectors are
// registered too when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeview_dispatch_total",
				Help: "Total number of messages dispatched to the action store",
			},
			[]string{"tag"},
		),
		QueryTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeview_query_transitions_total",
				Help: "Query lifecycle transitions by phase (pending, resolved, failed, dropped)",
			},
			[]string{"phase"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homeview_query_duration_seconds",
				Help:    "Time from activation to settlement of a query",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	m.Registry.MustRegister(m.Dispatches, m.QueryTransitions, m.QueryDuration)
	if withRuntime {
		m.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// StoreHooks counts every dispatch by tag, handled or not.
func (m *Metrics) StoreHooks() domain.StoreHooks {
	return domain.StoreHooks{
		OnDispatch: func(e *domain.DispatchEvent) {
			m.Dispatches.WithLabelValues(string(e.Tag)).Inc()
		},
	}
}

// QueryHooks counts phase changes and observes settlement latency.
func (m *Metrics) QueryHooks() domain.QueryHooks {
	return domain.QueryHooks{
		OnActivate: func(e *domain.QueryEvent) {
			m.QueryTransitions.WithLabelValues(e.Phase).Inc()
		},
		OnTransition: func(e *domain.QueryEvent) {
			m.QueryTransitions.WithLabelValues(e.Phase).Inc()
			m.QueryDuration.Observe(e.Elapsed.Seconds())
		},
		OnDropped: func(e *domain.QueryEvent) {
			m.QueryTransitions.WithLabelValues("dropped").Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ChainStore merges store hook sets so metrics can be combined with caller-supplied hooks.
func ChainStore(hooks ...domain.StoreHooks) domain.StoreHooks {
	return domain.StoreHooks{
		OnDispatch: func(e *domain.DispatchEvent) {
			for _, h := range hooks {
				if h.OnDispatch != nil {
					h.OnDispatch(e)
				}
			}
		},
	}
}

// ChainQuery merges query hook sets.
func ChainQuery(hooks ...domain.QueryHooks) domain.QueryHooks {
	return domain.QueryHooks{
		OnActivate: func(e *domain.QueryEvent) {
			for _, h := range hooks {
				if h.OnActivate != nil {
					h.OnActivate(e)
				}
			}
		},
		OnTransition: func(e *domain.QueryEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(e)
				}
			}
		},
		OnDropped: func(e *domain.QueryEvent) {
			for _, h := range hooks {
				if h.OnDropped != nil {
					h.OnDropped(e)
				}
			}
		},
	}
}
