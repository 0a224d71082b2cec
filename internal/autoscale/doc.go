// Package autoscale implements elastic pool sizing for Ballast: a policy
// that maps load to scaling decisions and a background scaler that carries
// them out.
//
// # Overview
//
// The scaler evaluates on a fixed interval. Each tick it reads aggregate
// load — total in-flight over total capacity across healthy workers, as a
// percentage — and asks the Policy for a decision. Load above the scale-up
// threshold adds one worker (up to the maximum); load below the scale-down
// threshold removes one (down to the minimum). One worker per tick, in
// either direction.
//
// # Architecture
//
//	             ┌───────────────────────────┐
//	             │          Scaler           │ one evaluation per interval
//	             └─┬────────┬────────┬───────┘
//	      load +   │        │        │ Provision / Teardown
//	    candidates │        │        ▼
//	               │        │   ┌─────────────┐
//	               │        │   │ Provisioner │ standby pool, runtime, API
//	               │        │   └─────────────┘
//	               ▼        ▼
//	        ┌──────────┐ ┌────────┐
//	        │  Status  │ │ Policy │ thresholds, bounds, cooldowns
//	        │  (read)  │ └────────┘
//	        └──────────┘
//	               │ Add / SetDraining / Remove
//	               ▼
//	        ┌──────────┐
//	        │ Registry │ shared with the router
//	        └──────────┘
//
// # Oscillation Control
//
// Each direction has an independent cooldown window that opens when an
// actionable decision is made. While the window is open, further decisions
// in the same direction are suppressed; the opposite direction is never
// delayed, so a burst arriving right after a scale-down still scales up
// immediately. The window opens at decision time, not completion time,
// which also rate-limits retries against a failing provisioner.
//
// # Victim Selection
//
// Scale-down prefers a worker that has been unhealthy past the removal
// grace period (longest-unhealthy first); only when none exists does it
// take the most recently added healthy worker, keeping the longest-serving
// workers in place.
//
// # Drain Semantics
//
// Removal never interrupts in-flight work. The victim is marked draining
// (the router stops selecting it), then the scaler polls its in-flight
// count until it reaches zero or the drain timeout elapses. On timeout the
// worker is removed anyway and the outstanding count is reported as
// abandoned via log and event; nothing here retries that work. Immediately
// before removal, a victim that was chosen for being unhealthy is re-checked
// against the status store and returned to service if it recovered during
// the drain.
//
// # Usage Example
//
//	policy, err := autoscale.NewPolicy(
//	    autoscale.WithBounds(2, 10),
//	    autoscale.WithThresholds(70, 30),
//	    autoscale.WithCooldowns(30*time.Second, 60*time.Second),
//	)
//	if err != nil {
//	    log.Fatalf("Invalid scaling policy: %v", err)
//	}
//
//	scaler, err := autoscale.NewScaler(autoscale.Config{
//	    Registry:    registry,
//	    Status:      store,
//	    Policy:      policy,
//	    Provisioner: pool,
//	    Bus:         bus,
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create scaler: %v", err)
//	}
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go scaler.Start(ctx)
//	defer scaler.Stop()
//
// # Limitations and Future Work
//
// Current limitations that will be addressed:
//   - Scaling moves one worker per tick; a large load spike takes several
//     intervals to absorb (step sizes proportional to load error)
//   - Load is an instantaneous reading, not a windowed average, so a
//     single quiet tick between bursts can trigger a scale-down
//   - The drain wait blocks the evaluation loop; ticks are skipped while a
//     slow drain is in progress
//
// # See Also
//
// Related packages:
//   - internal/balancer: the registry being grown and shrunk
//   - internal/health: the status view consulted for load and victims
//   - internal/events: scale action and removal event definitions
package autoscale
