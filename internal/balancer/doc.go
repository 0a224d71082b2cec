// Package balancer implements the request-routing core of Ballast: an
// ordered worker registry, a closed set of selection strategies, and the
// router that dispatches units of work against them.
//
// # Overview
//
// The router answers one question per unit of work: which worker takes it.
// Eligibility comes from two sources the router does not own — the registry
// (membership, draining flags) and the health store (liveness) — and the
// answer comes from the configured strategy. The router's only mutable
// contribution is the per-worker in-flight accounting, and that accounting
// is what makes capacity a hard ceiling: a dispatch succeeds only by winning
// a compare-and-swap reservation against the worker's declared capacity.
//
// # Architecture
//
//	          Dispatch()                       Complete(id)
//	              │                                 │
//	              ▼                                 ▼
//	      ┌───────────────────────────────────────────────┐
//	      │                    Router                     │
//	      │  snapshot eligible → strategy order → reserve │
//	      └───────┬───────────────────┬───────────────────┘
//	              │                   │
//	    healthy? (health.Store)   membership + cursor
//	              │                   │
//	              ▼                   ▼
//	      ┌──────────────┐    ┌──────────────┐
//	      │ HealthReader │    │   Registry   │──── AutoScaler adds/removes
//	      └──────────────┘    │  []*Worker   │──── workers self-register
//	                          └──────────────┘
//
// # Dispatch Path
//
// Each Dispatch:
//
//  1. Snapshots the eligible workers: registered, healthy, not draining,
//     in registration order. No lock is held beyond the slice copy.
//  2. Asks the strategy for the attempt order over that snapshot.
//  3. Walks the order and reserves a slot on the first worker whose
//     in-flight count is below capacity (CAS loop, never exceeds).
//  4. Returns ErrNoCapacity only after every candidate refused.
//
// The caller invokes the chosen worker itself and must report Complete to
// release the slot. A caller that never reports leaks the slot; the design
// deliberately carries no janitor for that case.
//
// # Strategies
//
// The strategy set is closed and resolved once, at construction:
//
//	round_robin            shared monotonic cursor modulo the eligible
//	                       count at call time; membership changes re-wrap
//	                       instead of faulting
//	weighted_round_robin   each worker expanded into weight virtual slots;
//	                       expansion rebuilt when membership or weights
//	                       change; a full cycle of sum(weights) dispatches
//	                       hits each worker exactly weight times
//	least_connections      minimum in-flight wins; ties broken by
//	                       registration order, so outcomes are
//	                       deterministic and testable
//
// ParseStrategy rejects anything else with ErrUnknownStrategy before the
// deployment can route a single request.
//
// # Concurrency Model
//
// Registry membership is guarded by an RWMutex held only for structural
// mutation; the rotation cursor and every worker's in-flight counter and
// draining flag are atomics. A dispatch therefore never blocks behind an
// add or remove for longer than a slice copy, and two racing dispatches can
// never both take a worker's last slot. A worker may turn unhealthy between
// snapshot and reservation — the lost reservation is a retryable dispatch
// outcome, not corruption.
//
// # Failure Handling
//
// ErrNoCapacity is the only runtime error the router surfaces; retrying is
// the caller's decision. Completion reports for removed workers are dropped
// silently: the removed worker carried its counter away with it, and no
// other worker's accounting is touched.
//
// # Usage Example
//
//	registry := balancer.NewRegistry()
//	store := health.NewStore()
//	router, err := balancer.NewRouter(balancer.Config{
//	    Strategy: balancer.StrategyLeastConnections,
//	    Registry: registry,
//	    Status:   store,
//	})
//	if err != nil {
//	    log.Fatalf("router: %v", err)
//	}
//
//	id, err := router.Dispatch()
//	if errors.Is(err, balancer.ErrNoCapacity) {
//	    // every healthy worker is saturated; caller decides what now
//	}
//	defer router.Complete(id)
//
// # See Also
//
// Related packages:
//   - internal/health: the eligibility source consulted on every dispatch
//   - internal/autoscale: grows and shrinks the registry this package routes over
//   - internal/cluster: the WorkerInfo registration record
package balancer
