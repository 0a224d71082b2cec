// Package autoscale grows and shrinks the worker pool in response to
// aggregate load.
// This file implements the background scaling loop: load aggregation,
// victim selection, and drain-then-remove.
package autoscale

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dreamware/ballast/internal/balancer"
	"github.com/dreamware/ballast/internal/cluster"
	"github.com/dreamware/ballast/internal/events"
)

// Provisioner is the scaler's boundary to whatever actually supplies worker
// capacity: a standby pool, a container runtime, a cloud API. The scaler
// only ever asks for one worker at a time.
type Provisioner interface {
	// Provision brings up one worker and returns its registration info.
	Provision(ctx context.Context) (cluster.WorkerInfo, error)

	// Teardown releases a worker that has been removed from the registry.
	Teardown(ctx context.Context, info cluster.WorkerInfo) error
}

// StatusView is the scaler's read-only view of worker health. *health.Store
// satisfies it; tests substitute fixtures.
type StatusView interface {
	IsHealthy(workerID string) bool
	RemovalCandidates(grace time.Duration) []string
}

// Config wires a Scaler. Registry, Status, Policy, and Provisioner are
// required; the rest default as noted.
type Config struct {
	// Registry is the worker set the scaler grows and shrinks. Shared with
	// the router and health checker.
	Registry *balancer.Registry
	// Status is the health view used for load aggregation and victim
	// selection.
	Status StatusView
	// Policy decides when to scale. One instance per pool: it carries the
	// cooldown state.
	Policy *Policy
	// Provisioner supplies and releases worker capacity.
	Provisioner Provisioner
	// Bus receives ScaleAction and WorkerRemoved events; may be nil.
	Bus *events.Bus
	// Interval between evaluation ticks. Default 10s.
	Interval time.Duration
	// DrainTimeout bounds how long a removal waits for in-flight work to
	// finish. Default 30s.
	DrainTimeout time.Duration
	// DrainPoll is how often the drain wait re-reads the in-flight count.
	// Default 100ms.
	DrainPoll time.Duration
	// RemovalGrace is how long a worker must stay unhealthy before it is
	// preferred as a scale-down victim. Default 60s.
	RemovalGrace time.Duration
}

// Scaler is the background loop that keeps the pool sized to its load. Each
// tick reads aggregate load, asks the policy for a decision, and carries it
// out: scale-up provisions and registers one worker; scale-down drains and
// removes one.
//
// The scaler never interrupts in-flight work. Removal marks the victim
// draining (no new dispatches), waits for its counter to reach zero bounded
// by the drain timeout, and only then removes it. Work still in flight when
// the timeout elapses is abandoned and reported, never retried here.
// Thread-safe: all methods are safe for concurrent access.
type Scaler struct {
	registry     *balancer.Registry
	status       StatusView
	policy       *Policy
	provisioner  Provisioner
	bus          *events.Bus
	ctx          context.Context
	cancel       context.CancelFunc
	interval     time.Duration
	drainTimeout time.Duration
	drainPoll    time.Duration
	grace        time.Duration
	wg           sync.WaitGroup
}

// NewScaler validates the configuration and builds a scaler.
//
// Example:
//
//	policy, _ := autoscale.NewPolicy(autoscale.WithBounds(2, 10))
//	scaler, err := autoscale.NewScaler(autoscale.Config{
//	    Registry:    registry,
//	    Status:      store,
//	    Policy:      policy,
//	    Provisioner: pool,
//	})
func NewScaler(cfg Config) (*Scaler, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Status == nil {
		return nil, errors.New("status view is required")
	}
	if cfg.Policy == nil {
		return nil, errors.New("policy is required")
	}
	if cfg.Provisioner == nil {
		return nil, errors.New("provisioner is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.DrainPoll <= 0 {
		cfg.DrainPoll = 100 * time.Millisecond
	}
	if cfg.RemovalGrace <= 0 {
		cfg.RemovalGrace = 60 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scaler{
		registry:     cfg.Registry,
		status:       cfg.Status,
		policy:       cfg.Policy,
		provisioner:  cfg.Provisioner,
		bus:          cfg.Bus,
		ctx:          ctx,
		cancel:       cancel,
		interval:     cfg.Interval,
		drainTimeout: cfg.DrainTimeout,
		drainPoll:    cfg.DrainPoll,
		grace:        cfg.RemovalGrace,
	}, nil
}

// Start runs the evaluation loop in the current goroutine and blocks until
// the context is canceled or Stop is called. The first evaluation happens
// one full interval after start, so a pool that is still registering is not
// scaled down on boot off an empty load reading.
func (s *Scaler) Start(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	if ctx == nil {
		ctx = s.ctx
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	min, max := s.policy.Bounds()
	log.Printf("Auto-scaler started with interval %v, bounds %d..%d", s.interval, min, max)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			log.Println("Auto-scaler stopping due to context cancellation")
			return
		case <-s.ctx.Done():
			log.Println("Auto-scaler stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the loop and waits for an in-progress tick, including its
// drain wait, to finish.
func (s *Scaler) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Println("Auto-scaler stopped")
}

// tick runs one evaluation. With no healthy capacity there is no load
// signal, so the tick is skipped rather than read as zero load; dead-pool
// cleanup stays the responsibility of the unhealthy-victim path on later
// ticks.
func (s *Scaler) tick(ctx context.Context) {
	workers := s.registry.Workers()
	load, ok := s.aggregateLoad(workers)
	if !ok {
		return
	}

	decision := s.policy.Evaluate(load, len(workers))
	switch decision.Action {
	case ActionScaleUp:
		s.scaleUp(ctx, decision)
	case ActionScaleDown:
		s.scaleDown(ctx, decision)
	}
}

// aggregateLoad computes in-flight over capacity across healthy workers as
// a percentage. ok is false when no healthy capacity exists.
func (s *Scaler) aggregateLoad(workers []*balancer.Worker) (load float64, ok bool) {
	var inflight, capacity int64
	for _, w := range workers {
		if !s.status.IsHealthy(w.ID()) {
			continue
		}
		inflight += w.InFlight()
		capacity += w.Capacity()
	}
	if capacity == 0 {
		return 0, false
	}
	return float64(inflight) / float64(capacity) * 100, true
}

// scaleUp provisions one worker and registers it. A provisioning or
// registration failure burns the scale-up cooldown window: the next attempt
// waits out the window instead of hammering a failing provider every tick.
func (s *Scaler) scaleUp(ctx context.Context, decision Decision) {
	info, err := s.provisioner.Provision(ctx)
	if err != nil {
		log.Printf("Scale-up aborted: provisioning failed: %v", err)
		return
	}

	if _, err := s.registry.Add(info); err != nil {
		log.Printf("Scale-up aborted: registration of %s failed: %v", info.ID, err)
		if terr := s.provisioner.Teardown(ctx, info); terr != nil {
			log.Printf("Teardown of unregistered worker %s failed: %v", info.ID, terr)
		}
		return
	}

	log.Printf("Scaled up: added worker %s (%s)", info.ID, decision.Reason)
	s.bus.Publish(events.NewScaleAction("scale-up", info.ID, decision.Load, decision.Reason))
	s.bus.Publish(events.NewWorkerAdded(info.ID, info.Addr, info.Capacity, info.Weight))
}

// scaleDown picks a victim, drains it, and removes it.
func (s *Scaler) scaleDown(ctx context.Context, decision Decision) {
	victim, wasUnhealthy := s.pickVictim()
	if victim == nil {
		log.Printf("Scale-down skipped: no removable worker (%s)", decision.Reason)
		return
	}

	id := victim.ID()
	s.registry.SetDraining(id, true)
	abandoned := s.drain(ctx, victim)

	// A victim chosen for being unhealthy gets one last look at the status
	// store: if it recovered while draining, it goes back into service
	// instead of being removed.
	if wasUnhealthy && s.status.IsHealthy(id) {
		s.registry.SetDraining(id, false)
		log.Printf("Scale-down aborted: worker %s recovered during drain", id)
		return
	}

	removed, ok := s.registry.Remove(id)
	if !ok {
		// Deregistered out from under us during the drain.
		return
	}

	reason := "scale-down"
	if abandoned > 0 {
		reason = "drain-timeout"
		log.Printf("Removed worker %s: %v, %d units abandoned", id, ErrDrainTimeout, abandoned)
	} else {
		log.Printf("Scaled down: removed worker %s (%s)", id, decision.Reason)
	}

	if err := s.provisioner.Teardown(ctx, removed.Info()); err != nil {
		log.Printf("Teardown of worker %s failed: %v", id, err)
	}

	s.bus.Publish(events.NewScaleAction("scale-down", id, decision.Load, decision.Reason))
	s.bus.Publish(events.NewWorkerRemoved(id, reason, abandoned))
}

// pickVictim selects the worker to remove: a worker unhealthy past the
// removal grace first (longest-unhealthy first), else the most recently
// added healthy one. wasUnhealthy reports which path chose the victim.
func (s *Scaler) pickVictim() (victim *balancer.Worker, wasUnhealthy bool) {
	for _, id := range s.status.RemovalCandidates(s.grace) {
		if w, ok := s.registry.Get(id); ok {
			return w, true
		}
	}

	// Registration order breaks Added() ties, so two workers added within
	// the same clock tick still yield a deterministic victim.
	var newest *balancer.Worker
	for _, w := range s.registry.Workers() {
		if !s.status.IsHealthy(w.ID()) {
			continue
		}
		if newest == nil || !w.Added().Before(newest.Added()) {
			newest = w
		}
	}
	return newest, false
}

// drain waits for the worker's in-flight count to reach zero, re-reading it
// every poll interval, bounded by the drain timeout and the context.
//
// Returns:
//   - int64: the in-flight count still outstanding when the wait ended;
//     zero means a clean drain
func (s *Scaler) drain(ctx context.Context, w *balancer.Worker) int64 {
	if w.InFlight() == 0 {
		return 0
	}

	deadline := time.NewTimer(s.drainTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(s.drainPoll)
	defer poll.Stop()

	for {
		select {
		case <-poll.C:
			if w.InFlight() == 0 {
				return 0
			}
		case <-deadline.C:
			return w.InFlight()
		case <-ctx.Done():
			return w.InFlight()
		}
	}
}
