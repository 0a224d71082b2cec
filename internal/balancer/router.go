// Package balancer implements the request-routing core: worker registry,
// selection strategies, and the dispatch router.
// This file implements the dispatch router.
package balancer

import (
	"errors"
)

// HealthReader is the router's view of the health store: eligibility only.
// *health.Store satisfies it; tests substitute fixed maps.
type HealthReader interface {
	IsHealthy(workerID string) bool
}

// Config wires a Router. Registry and Status are required and are shared
// with the health checker and auto-scaler; the router never owns them.
type Config struct {
	// Strategy is the selection strategy name. Empty defaults to
	// round_robin; an unknown name fails construction.
	Strategy string
	// Registry is the worker set the router dispatches over. Required.
	Registry *Registry
	// Status is the health view consulted for eligibility. Required.
	Status HealthReader
}

// Router selects a worker for each incoming unit of work.
//
// A dispatch works on a snapshot: the eligible list (healthy, not draining)
// is read once, the strategy orders it, and the router reserves a slot on
// the first candidate that has one. A worker can turn unhealthy between
// snapshot and reservation — that is a lost slot on a dying worker, not
// corruption, and the caller sees either a successful dispatch elsewhere or
// ErrNoCapacity.
// Thread-safe: all methods are safe for concurrent callers.
type Router struct {
	registry *Registry
	status   HealthReader
	strategy Strategy
}

// NewRouter validates the configuration and builds a router. Strategy
// parsing happens here: a deployment with a bad strategy name fails before
// it can route anything.
//
// Example:
//
//	router, err := balancer.NewRouter(balancer.Config{
//	    Strategy: balancer.StrategyLeastConnections,
//	    Registry: registry,
//	    Status:   store,
//	})
func NewRouter(cfg Config) (*Router, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Status == nil {
		return nil, errors.New("status store is required")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyRoundRobin
	}

	strategy, err := ParseStrategy(cfg.Strategy, cfg.Registry)
	if err != nil {
		return nil, err
	}

	return &Router{
		registry: cfg.Registry,
		status:   cfg.Status,
		strategy: strategy,
	}, nil
}

// Strategy returns the active strategy's name.
func (r *Router) Strategy() string {
	return r.strategy.Name()
}

// Dispatch selects a worker for one unit of work and reserves an in-flight
// slot on it. The caller must invoke the worker itself and later report the
// outcome via Complete; a caller that never reports leaks the slot (a
// documented limitation, not auto-healed).
//
// Returns:
//   - string: ID of the worker holding the reservation
//   - error: ErrNoCapacity when no eligible worker has a free slot
func (r *Router) Dispatch() (string, error) {
	eligible := r.eligible()
	if len(eligible) == 0 {
		return "", ErrNoCapacity
	}

	for _, w := range r.strategy.Order(eligible) {
		if w.tryAcquire() {
			return w.ID(), nil
		}
	}
	return "", ErrNoCapacity
}

// Complete releases the in-flight slot held by a previous Dispatch. A
// completion for a worker that has since been removed is dropped silently:
// the removed worker took its counter with it, and no other worker's
// accounting is affected.
func (r *Router) Complete(workerID string) {
	if w, ok := r.registry.Get(workerID); ok {
		w.release()
	}
}

// eligible snapshots the workers a dispatch may consider: registered,
// currently healthy, and not draining, in registration order.
func (r *Router) eligible() []*Worker {
	workers := r.registry.Workers()
	out := make([]*Worker, 0, len(workers))
	for _, w := range workers {
		if w.Draining() {
			continue
		}
		if !r.status.IsHealthy(w.ID()) {
			continue
		}
		out = append(out, w)
	}
	return out
}
