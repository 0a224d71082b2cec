// Package metrics exposes the control plane's Prometheus instrumentation.
//
// # Overview
//
// The core packages never import this one. They publish events on the bus
// (internal/events); a Collector attached to that bus translates each event
// into counter, gauge, and histogram updates. The only metrics fed directly
// are the dispatch instruments, which the balancer binary updates from its
// HTTP handlers because dispatches do not travel on the bus.
//
// # Metric Inventory
//
//	ballast_dispatches_total{pool,outcome}          dispatch attempts, "ok" or "no_capacity"
//	ballast_workers_added_total{pool}               registry additions
//	ballast_workers_removed_total{pool,reason}      registry removals by reason
//	ballast_health_transitions_total{pool,to}       health state changes by resulting state
//	ballast_scale_actions_total{pool,action}        scaler actions, "scale-up" or "scale-down"
//	ballast_abandoned_units_total{pool}             in-flight units lost to drain timeouts
//	ballast_cache_lookups_total{pool,result}        cache lookups, "hit" or "miss"
//	ballast_active_workers{pool}                    current registry size
//	ballast_pool_load_percent{pool}                 load at the last scaling decision
//	ballast_probe_latency_seconds{pool}             probe round trips at transitions
//	ballast_dispatch_duration_seconds{pool}         worker selection time
//
// All metrics register with the default Prometheus registry at package init.
//
// # Usage Example
//
//	collector := metrics.NewCollector("default")
//	collector.Attach(bus)
//	defer collector.Detach()
//
//	srv := metrics.NewServer(":9090")
//	srv.Start()
//	defer srv.Shutdown(context.Background())
//
// # See Also
//
// Related packages:
//   - internal/events: the bus the Collector subscribes to
package metrics
