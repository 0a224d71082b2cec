// Package balancer implements the request-routing core: worker registry,
// selection strategies, and the dispatch router.
// This file implements the per-worker runtime state.
package balancer

import (
	"sync/atomic"
	"time"

	"github.com/dreamware/ballast/internal/cluster"
)

// Worker is the registry's runtime view of one backend worker: the immutable
// registration info plus the mutable dispatch state. The in-flight counter
// and draining flag are atomics so the dispatch path never takes the
// registry lock.
// Thread-safe: all methods are safe for concurrent access. Always handled by
// pointer; a Worker must not be copied.
type Worker struct {
	info     cluster.WorkerInfo
	added    time.Time
	inflight atomic.Int64
	draining atomic.Bool
}

func newWorker(info cluster.WorkerInfo) *Worker {
	return &Worker{
		info:  info,
		added: time.Now(),
	}
}

// Info returns the worker's registration record.
func (w *Worker) Info() cluster.WorkerInfo { return w.info }

// ID returns the worker's identity.
func (w *Worker) ID() string { return w.info.ID }

// Addr returns the worker's dial address.
func (w *Worker) Addr() string { return w.info.Addr }

// Capacity returns the declared maximum concurrent in-flight count.
func (w *Worker) Capacity() int64 { return w.info.Capacity }

// Weight returns the selection weight bound at registration.
func (w *Worker) Weight() int { return w.info.Weight }

// Added returns when the worker joined the registry.
func (w *Worker) Added() time.Time { return w.added }

// InFlight returns the current number of dispatched-but-uncompleted work
// units.
func (w *Worker) InFlight() int64 { return w.inflight.Load() }

// LoadRatio returns in-flight over capacity, in [0, 1] under normal
// accounting.
func (w *Worker) LoadRatio() float64 {
	return float64(w.inflight.Load()) / float64(w.info.Capacity)
}

// Draining reports whether the worker is closed to new dispatches.
func (w *Worker) Draining() bool { return w.draining.Load() }

// setDraining opens or closes the worker for new dispatches. In-flight work
// is unaffected either way.
func (w *Worker) setDraining(draining bool) { w.draining.Store(draining) }

// tryAcquire reserves one in-flight slot if any remains. The
// compare-and-swap loop is what keeps the declared capacity a hard dispatch
// ceiling under concurrent callers: two racing dispatches can never both
// take the last slot.
func (w *Worker) tryAcquire() bool {
	for {
		current := w.inflight.Load()
		if current >= w.info.Capacity {
			return false
		}
		if w.inflight.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// release returns one in-flight slot. A release with nothing in flight is
// ignored, so a duplicate completion report cannot drive the counter
// negative and skew least-connections ordering.
func (w *Worker) release() {
	for {
		current := w.inflight.Load()
		if current <= 0 {
			return
		}
		if w.inflight.CompareAndSwap(current, current-1) {
			return
		}
	}
}
