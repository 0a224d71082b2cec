// Package events defines the structured events emitted by the control plane
// and a synchronous bus for delivering them to observability sinks.
//
// # Overview
//
// Every observable action in the subsystem — a worker joining or leaving, a
// health transition, a scaling decision, a cache lookup — is modeled as a
// typed event published on a Bus. Publishers never know who is listening:
// the Prometheus collector subscribes, tests subscribe, and a deployment
// that wants neither simply passes a nil bus (Publish is nil-safe).
//
// # Event Types
//
//	worker.added        WorkerAdded        registry membership grew
//	worker.removed      WorkerRemoved      registry membership shrank (carries abandoned count)
//	health.transition   HealthTransition   unknown/healthy/unhealthy state change
//	scale.action        ScaleAction        auto-scaler added or removed capacity
//	cache.lookup        CacheLookup        cache hit or miss per key
//
// # Delivery Semantics
//
// Publish is synchronous and runs handlers on the publisher's goroutine:
// specific subscribers first, wildcard subscribers second, each group in
// registration order. A panicking handler is recovered and logged; delivery
// continues. Handlers that need to do slow work should hand off to their own
// goroutine — the publishers here sit on dispatch and probe paths.
//
// # Usage Example
//
//	bus := events.NewBus()
//	bus.Subscribe("scale.action", func(e events.Event) {
//	    sa := e.(events.ScaleAction)
//	    log.Printf("scaler: %s worker=%s load=%.1f%%", sa.Action, sa.WorkerID, sa.Load)
//	})
//	bus.Publish(events.NewScaleAction("scale-up", "w7", 85.0, "load above threshold"))
//
// # See Also
//
// Related packages:
//   - internal/metrics: the Prometheus-facing subscriber
//   - internal/health, internal/autoscale, internal/cache: publishers
package events
