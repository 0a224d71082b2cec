package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DispatchesTotal tracks the total number of dispatch attempts by outcome
// ("ok" or "no_capacity").
var DispatchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_dispatches_total",
		Help: "Total dispatch attempts by outcome",
	},
	[]string{"pool", "outcome"},
)

// WorkersAddedTotal tracks the total number of workers added to the registry.
var WorkersAddedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_workers_added_total",
		Help: "Total workers added to the registry",
	},
	[]string{"pool"},
)

// WorkersRemovedTotal tracks the total number of workers removed from the
// registry, by removal reason ("scale-down", "drain-timeout", "deregistered").
var WorkersRemovedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_workers_removed_total",
		Help: "Total workers removed from the registry by reason",
	},
	[]string{"pool", "reason"},
)

// HealthTransitionsTotal tracks the total number of worker health state
// changes, by resulting state.
var HealthTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_health_transitions_total",
		Help: "Total worker health state transitions by resulting state",
	},
	[]string{"pool", "to"},
)

// ScaleActionsTotal tracks the total number of auto-scaling actions taken.
var ScaleActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_scale_actions_total",
		Help: "Total auto-scaling actions by direction",
	},
	[]string{"pool", "action"},
)

// AbandonedUnitsTotal tracks work units still in flight when their worker
// was removed after a drain timeout.
var AbandonedUnitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_abandoned_units_total",
		Help: "Total in-flight units abandoned by drain timeouts",
	},
	[]string{"pool"},
)

// CacheLookupsTotal tracks the total number of cache lookups by result
// ("hit" or "miss").
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ballast_cache_lookups_total",
		Help: "Total cache lookups by result",
	},
	[]string{"pool", "result"},
)

// ActiveWorkers tracks the current number of registered workers.
var ActiveWorkers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ballast_active_workers",
		Help: "Current registered workers",
	},
	[]string{"pool"},
)

// PoolLoad tracks the aggregate load percentage observed at the most recent
// scaling decision.
var PoolLoad = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ballast_pool_load_percent",
		Help: "Aggregate pool load percentage at the last scaling decision",
	},
	[]string{"pool"},
)

// ProbeLatency tracks health probe round-trip latency observed at state
// transitions.
var ProbeLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ballast_probe_latency_seconds",
		Help:    "Health probe round-trip latency at state transitions",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"pool"},
)

// DispatchDuration tracks the time spent selecting a worker per dispatch.
var DispatchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ballast_dispatch_duration_seconds",
		Help:    "Time spent selecting a worker per dispatch",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"pool"},
)
