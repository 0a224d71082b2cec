// Package balancer implements the request-routing core: worker registry,
// selection strategies, and the dispatch router.
// This file implements the ordered worker registry and its rotation cursor.
package balancer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dreamware/ballast/internal/cluster"
)

// Registry is the ordered set of registered workers plus the shared
// round-robin rotation cursor. Membership changes take the registry lock for
// the structural mutation only; routing reads take a snapshot and work on
// it, so a dispatch never blocks behind an add or remove for longer than a
// slice copy.
// Thread-safe: all methods are safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	workers []*Worker // registration order
	cursor  atomic.Uint64
}

// NewRegistry creates an empty registry. The registry is always constructed
// explicitly and passed by reference to the router, checker, and scaler —
// there is no package-level instance.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a worker and returns its runtime handle.
//
// Validation: an empty ID or a capacity below one fails with
// ErrInvalidWorker; a duplicate ID fails with ErrDuplicateWorker. A weight
// below one is raised to one, so every worker owns at least one virtual slot
// under weighted round-robin.
//
// Example:
//
//	w, err := registry.Add(cluster.WorkerInfo{
//	    ID: "worker-1", Addr: "http://localhost:9001", Capacity: 10, Weight: 2,
//	})
func (r *Registry) Add(info cluster.WorkerInfo) (*Worker, error) {
	if info.ID == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrInvalidWorker)
	}
	if info.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d for %s", ErrInvalidWorker, info.Capacity, info.ID)
	}
	if info.Weight < 1 {
		info.Weight = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.workers {
		if w.ID() == info.ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWorker, info.ID)
		}
	}

	w := newWorker(info)
	r.workers = append(r.workers, w)
	return w, nil
}

// Remove deletes a worker from the registry and returns its handle. Work
// already dispatched to it keeps its counter on the detached handle, so
// in-flight accounting for other workers is untouched; a completion report
// for a removed worker becomes a no-op at the router.
func (r *Registry) Remove(id string) (*Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, w := range r.workers {
		if w.ID() == id {
			r.workers = append(r.workers[:i], r.workers[i+1:]...)
			return w, true
		}
	}
	return nil, false
}

// Get returns the runtime handle for a worker ID.
func (r *Registry) Get(id string) (*Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.workers {
		if w.ID() == id {
			return w, true
		}
	}
	return nil, false
}

// Workers returns a snapshot of the current workers in registration order.
// The slice is a copy; the handles are shared.
func (r *Registry) Workers() []*Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Worker, len(r.workers))
	copy(out, r.workers)
	return out
}

// Infos returns the registration records of all current workers in
// registration order. This is the provider shape the health checker takes.
func (r *Registry) Infos() []cluster.WorkerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cluster.WorkerInfo, len(r.workers))
	for i, w := range r.workers {
		out[i] = w.info
	}
	return out
}

// Len returns the current worker count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// SetDraining opens or closes a worker for new dispatches. It reports
// whether the worker exists.
func (r *Registry) SetDraining(id string, draining bool) bool {
	w, ok := r.Get(id)
	if !ok {
		return false
	}
	w.setDraining(draining)
	return true
}

// NextIndex advances the shared rotation cursor and maps it onto a list of
// length n. The cursor itself only ever increases; taking it modulo the
// length at call time is what keeps round-robin valid across concurrent
// membership changes — when the eligible count shrinks or grows, the next
// call simply wraps over the new length instead of faulting.
func (r *Registry) NextIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return int((r.cursor.Add(1) - 1) % uint64(n))
}
