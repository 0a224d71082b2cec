// Package health implements worker liveness detection for Ballast: a shared
// status store that the router and auto-scaler read, and a periodic checker
// that is the store's only writer.
//
// # Overview
//
// The package separates detection from remediation. The Checker decides what
// each worker's state is (unknown, healthy, unhealthy) and records it; it
// never acts on that information. The router consults the store on every
// dispatch, and the auto-scaler consults it when picking removal victims.
// A worker unhealthy past the scaler's grace period is nominated as a
// removal candidate — nomination is as far as this package goes.
//
// # Architecture
//
//	                 ┌──────────────────┐
//	                 │     Checker      │  one sweep per interval,
//	                 │  (only writer)   │  parallel bounded probes
//	                 └────────┬─────────┘
//	                          │ observe(id, alive, latency)
//	                          ▼
//	                 ┌──────────────────┐
//	                 │      Store       │  RWMutex, records by worker ID
//	                 └───┬──────────┬───┘
//	        IsHealthy()  │          │  RemovalCandidates(grace)
//	                     ▼          ▼
//	              ┌──────────┐ ┌────────────┐
//	              │  Router  │ │ AutoScaler │
//	              └──────────┘ └────────────┘
//
// # State Machine
//
// Each worker moves through three states:
//
//	unknown ──success──▶ healthy ◀──success── unhealthy
//	   │                    │                     ▲
//	   └──fails ≥ N─────────┴──────fails ≥ N──────┘
//
// N is Config.FailureThreshold (default 1). A probe "succeeds" only when the
// worker answers alive within the latency budget; a slow-but-alive worker
// counts as failed because the router cannot rely on it. One successful
// probe always restores healthy and clears the failure streak.
//
// # Happens-Before Guarantee
//
// All transitions are applied under the Store's mutex, and every reader goes
// through the same mutex. When a probe marks a worker unhealthy, the very
// next eligibility read in the router observes it — synchronization, not
// timing, carries the guarantee.
//
// # Probing
//
// The Checker probes all workers of a sweep in parallel, each with its own
// context bounded by the latency budget, so a sweep costs one budget in the
// worst case rather than one budget per worker. Probe timeouts are absorbed
// as failures and never escalate; nothing in this package returns an error
// to its caller.
//
// The probe transport is pluggable via SetProbeFunc. The default is an HTTP
// GET against {addr}/health expecting 200 OK.
//
// # Configuration
//
//	Config{
//	    Interval:         5 * time.Second,  // sweep cadence
//	    LatencyBudget:    2 * time.Second,  // per-probe bound
//	    FailureThreshold: 1,                // consecutive fails before unhealthy
//	    Bus:              bus,              // optional event sink
//	}
//
// # Usage Example
//
//	store := health.NewStore()
//	checker := health.NewChecker(store, health.Config{
//	    Interval: 5 * time.Second,
//	})
//	checker.SetOnTransition(func(id string, from, to health.Status) {
//	    log.Printf("worker %s: %s -> %s", id, from, to)
//	})
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go checker.Start(ctx, registry.Infos)
//	defer checker.Stop()
//
// # Limitations and Future Work
//
// Current limitations that will be addressed:
//   - A single probe path: no secondary confirmation before the unhealthy
//     transition (raise FailureThreshold to tolerate flappy networks)
//   - No per-worker probe overrides (interval and budget are global)
//   - No passive health signals from dispatch outcomes; only active probes
//
// # See Also
//
// Related packages:
//   - internal/balancer: reads IsHealthy on the dispatch path
//   - internal/autoscale: consumes RemovalCandidates and re-checks before removal
//   - internal/events: transition event definitions
package health
