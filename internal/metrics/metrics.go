// ABOUTME: Prometheus counters and gauges for the hub's hot paths.
// ABOUTME: Bind wires them into the core packages' instrumentation hooks.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event bus metrics
	EventsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_events_emitted_total",
			Help: "Total number of events emitted on the bus",
		},
	)

	SinkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_sink_failures_total",
			Help: "Total number of subscriber delivery failures",
		},
	)

	// Registry metrics
	ActionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_action_runs_total",
			Help: "Total number of successful action runs",
		},
		[]string{"action"},
	)

	SignalsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_signals_handled_total",
			Help: "Total number of successfully handled signals",
		},
		[]string{"signal"},
	)

	// State store metrics
	StateExpiries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_state_expiries_total",
			Help: "Total number of keys purged after TTL expiry",
		},
	)

	// Webhook metrics
	DuplicateDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_duplicate_deliveries_total",
			Help: "Total number of webhook deliveries suppressed as duplicates",
		},
		[]string{"signal"},
	)
)

// Hookable is the instrumentation surface the core packages expose. Each
// method installs a callback fired on the corresponding hot path.
type Hookable interface {
	SetHooks(onEmit, onSinkFailure func())
	SubscriberCount() int
}

// ActionHookable installs a callback fired after each successful action run.
type ActionHookable interface {
	SetRunHook(func(name string))
}

// SignalHookable installs a callback fired after each handled signal.
type SignalHookable interface {
	SetHandleHook(func(name string))
}

// ExpireHookable installs a callback fired per key purged on TTL expiry.
type ExpireHookable interface {
	SetExpireHook(func())
}

// Bind wires the exported collectors into the given components. Nil
// components are skipped, so callers can bind whatever subset they run.
func Bind(bus Hookable, actions ActionHookable, signals SignalHookable, store ExpireHookable) {
	if bus != nil {
		bus.SetHooks(
			func() { EventsEmitted.Inc() },
			func() { SinkFailures.Inc() },
		)
		promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "hearth_subscribers",
				Help: "Current number of bus subscribers",
			},
			func() float64 { return float64(bus.SubscriberCount()) },
		)
	}
	if actions != nil {
		actions.SetRunHook(func(name string) {
			ActionRuns.WithLabelValues(name).Inc()
		})
	}
	if signals != nil {
		signals.SetHandleHook(func(name string) {
			SignalsHandled.WithLabelValues(name).Inc()
		})
	}
	if store != nil {
		store.SetExpireHook(func() { StateExpiries.Inc() })
	}
}
