// Package metrics exposes session gauges and counters for Prometheus.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ctxkeeper"

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	trackedItems       prometheus.Gauge
	tokenEstimate      prometheus.Gauge
	tokenBudget        prometheus.Gauge
	compactionSignals  prometheus.Counter
	memoryEntries      prometheus.Gauge
	memoryFlushes      prometheus.Counter
	memoryFlushFailure prometheus.Counter
	toolEvents         *prometheus.CounterVec
	sessionEvents      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		trackedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "tracker", Name: "items",
			Help: "Context items currently tracked in the session.",
		}),
		tokenEstimate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "tracker", Name: "tokens_estimate",
			Help: "Estimated tokens consumed by tracked context.",
		}),
		tokenBudget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "tracker", Name: "tokens_budget",
			Help: "Configured token budget for the session.",
		}),
		compactionSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tracker", Name: "compaction_signals_total",
			Help: "Times the tracker crossed into needing compaction.",
		}),
		memoryEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "memory", Name: "entries",
			Help: "Entries in the durable memory store.",
		}),
		memoryFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "memory", Name: "flushes_total",
			Help: "Successful memory flushes.",
		}),
		memoryFlushFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "memory", Name: "flush_failures_total",
			Help: "Memory flushes that failed to persist.",
		}),
		toolEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "tool_events_total",
			Help: "Tool events handled, by decoded kind.",
		}, []string{"kind"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "lifecycle_events_total",
			Help: "Session lifecycle events handled, by event.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.trackedItems, m.tokenEstimate, m.tokenBudget, m.compactionSignals,
		m.memoryEntries, m.memoryFlushes, m.memoryFlushFailure,
		m.toolEvents, m.sessionEvents,
	)
	return m
}

// Registry returns the underlying registry, for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTracker records the tracker's size and token usage.
func (m *Metrics) ObserveTracker(items, tokens, budget int) {
	if m == nil {
		return
	}
	m.trackedItems.Set(float64(items))
	m.tokenEstimate.Set(float64(tokens))
	m.tokenBudget.Set(float64(budget))
}

// CompactionSignaled counts a transition into needing compaction.
func (m *Metrics) CompactionSignaled() {
	if m == nil {
		return
	}
	m.compactionSignals.Inc()
}

// ObserveMemory records the durable store size.
func (m *Metrics) ObserveMemory(entries int) {
	if m == nil {
		return
	}
	m.memoryEntries.Set(float64(entries))
}

// Flushed counts a memory flush attempt by outcome.
func (m *Metrics) Flushed(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.memoryFlushFailure.Inc()
		return
	}
	m.memoryFlushes.Inc()
}

// ToolEvent counts a handled tool event.
func (m *Metrics) ToolEvent(kind string) {
	if m == nil {
		return
	}
	m.toolEvents.WithLabelValues(kind).Inc()
}

// SessionEvent counts a handled lifecycle event.
func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(event).Inc()
}
