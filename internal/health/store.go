// Package health provides worker liveness tracking for the balancer.
// This file implements the status store shared by the checker, router,
// and auto-scaler.
package health

import (
	"sort"
	"sync"
	"time"
)

// Status is the liveness state of a worker as seen by the checker.
type Status string

const (
	// StatusUnknown is the state of a worker that has never been probed.
	StatusUnknown Status = "unknown"
	// StatusHealthy means the last probe completed alive within budget.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy means probes have failed at least the configured
	// consecutive-failure threshold.
	StatusUnhealthy Status = "unhealthy"
)

// Record tracks the probe history of a single worker.
// Thread-safe: protected by the Store's mutex while inside the Store;
// accessor methods hand out copies.
type Record struct {
	LastProbe        time.Time     // Timestamp of the last probe attempt
	LastHealthy      time.Time     // Timestamp of the last successful probe
	UnhealthySince   time.Time     // When the current unhealthy streak began (zero if healthy)
	WorkerID         string        // Unique identifier of the worker
	Status           Status        // Current liveness state
	Latency          time.Duration // Last observed probe latency
	ConsecutiveFails int           // Consecutive failed probes
}

// Store is the shared health-status record set. The checker is the only
// writer (the mutating methods are unexported); the router and auto-scaler
// read through the exported accessors. All synchronization happens on the
// Store's mutex, so a status transition is visible to the next reader with a
// strict happens-before edge — no timing assumptions anywhere.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewStore creates an empty status store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Get returns a copy of the record for workerID. The second return is false
// when the worker has never been observed; callers should treat an absent
// record as StatusUnknown.
func (s *Store) Get(workerID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[workerID]
	if !ok {
		return Record{WorkerID: workerID, Status: StatusUnknown}, false
	}
	return *rec, true
}

// All returns a copy of every record, keyed by worker ID.
func (s *Store) All() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Record, len(s.records))
	for id, rec := range s.records {
		result[id] = *rec
	}
	return result
}

// IsHealthy reports whether the worker's current status is healthy.
// Unknown and absent workers report false.
func (s *Store) IsHealthy(workerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[workerID]
	return ok && rec.Status == StatusHealthy
}

// RemovalCandidates returns the IDs of workers that have been unhealthy for
// at least grace, longest-unhealthy first (ties by ID). The checker only
// nominates candidates; acting on them is the auto-scaler's job.
func (s *Store) RemovalCandidates(grace time.Duration) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	type candidate struct {
		since time.Time
		id    string
	}
	var candidates []candidate
	for id, rec := range s.records {
		if rec.Status != StatusUnhealthy || rec.UnhealthySince.IsZero() {
			continue
		}
		if now.Sub(rec.UnhealthySince) >= grace {
			candidates = append(candidates, candidate{since: rec.UnhealthySince, id: id})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].since.Equal(candidates[j].since) {
			return candidates[i].since.Before(candidates[j].since)
		}
		return candidates[i].id < candidates[j].id
	})

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids
}

// observe applies one probe result to the worker's record and returns the
// status before and after. threshold is the number of consecutive failures
// required for the healthy→unhealthy transition; a single successful probe
// always restores healthy. Only the checker calls this.
func (s *Store) observe(workerID string, alive bool, latency time.Duration, threshold int) (from, to Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[workerID]
	if !ok {
		rec = &Record{WorkerID: workerID, Status: StatusUnknown}
		s.records[workerID] = rec
	}

	from = rec.Status
	now := time.Now()
	rec.LastProbe = now
	rec.Latency = latency

	if alive {
		rec.Status = StatusHealthy
		rec.ConsecutiveFails = 0
		rec.LastHealthy = now
		rec.UnhealthySince = time.Time{}
	} else {
		rec.ConsecutiveFails++
		if rec.ConsecutiveFails >= threshold {
			if rec.Status != StatusUnhealthy {
				rec.UnhealthySince = now
			}
			rec.Status = StatusUnhealthy
		}
	}

	return from, rec.Status
}

// prune drops records for workers no longer registered and returns the
// removed IDs. Only the checker calls this, after each sweep.
func (s *Store) prune(active map[string]bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id := range s.records {
		if !active[id] {
			delete(s.records, id)
			removed = append(removed, id)
		}
	}
	return removed
}
