// Package cache implements the partitioned TTL cache.
// This file implements a single cache node: one partition's entries, lock,
// and eviction accounting.
package cache

import (
	"sync"
	"time"
)

// entry is one cached value with its timestamps. Values are stored as
// private copies; an entry is never handed out directly.
type entry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time // zero means no TTL
}

// expired reports whether the entry's TTL has elapsed at now.
func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats are one node's lifetime counters. Snapshot semantics: the struct is
// plain data, mutated only under the owning node's lock and returned by
// value.
type Stats struct {
	Hits        uint64 // reads that returned a live entry
	Misses      uint64 // reads of absent or expired keys
	Evictions   uint64 // entries removed by the capacity limit
	Expirations uint64 // entries removed by TTL, lazily or by sweep
}

// Node is one cache partition. All per-key operations on the partition go
// through the node's mutex, which is what makes reads and writes to a given
// key linearizable with respect to that key — there is no cross-node
// coordination anywhere in this package.
// Thread-safe: all methods are safe for concurrent access.
type Node struct {
	id         string
	maxEntries int
	mu         sync.RWMutex
	entries    map[string]*entry
	stats      Stats
}

// newNode creates an empty node. maxEntries bounds the partition; at the
// bound, inserting a new key evicts the oldest-inserted entry first.
func newNode(id string, maxEntries int) *Node {
	return &Node{
		id:         id,
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// ID returns the node's identity on the ring.
func (n *Node) ID() string { return n.id }

// Get returns a copy of the live value for key. An expired entry is removed
// on the spot (lazy expiry) and reads as a miss.
func (n *Node) Get(key string) ([]byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.entries[key]
	if !ok {
		n.stats.Misses++
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(n.entries, key)
		n.stats.Expirations++
		n.stats.Misses++
		return nil, false
	}

	n.stats.Hits++
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true
}

// Set stores a private copy of value under key. A ttl of zero or below
// means no expiry. Overwriting an existing key refreshes its insertion
// time, so it also moves to the back of the eviction order.
func (n *Node) Set(key string, value []byte, ttl time.Duration) {
	stored := make([]byte, len(value))
	copy(stored, value)

	now := time.Now()
	e := &entry{value: stored, createdAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.entries[key]; !exists && n.maxEntries > 0 && len(n.entries) >= n.maxEntries {
		n.evictOldest()
	}
	n.entries[key] = e
}

// Invalidate removes key and reports whether it was present.
func (n *Node) Invalidate(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.entries[key]; !ok {
		return false
	}
	delete(n.entries, key)
	return true
}

// Len returns the current entry count, expired entries included until a
// read or sweep removes them.
func (n *Node) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Stats returns a snapshot of the node's counters.
func (n *Node) Stats() Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stats
}

// sweep removes every entry expired at now and returns how many went. The
// cluster's background loop calls this per node on its interval; between
// sweeps, lazy expiry on Get keeps reads correct regardless.
func (n *Node) sweep(now time.Time) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	removed := 0
	for key, e := range n.entries {
		if e.expired(now) {
			delete(n.entries, key)
			removed++
		}
	}
	n.stats.Expirations += uint64(removed)
	return removed
}

// evictOldest removes the entry with the earliest insertion time, ties
// broken by key. Caller holds the lock.
func (n *Node) evictOldest() {
	var (
		oldestKey string
		oldest    *entry
	)
	for key, e := range n.entries {
		if oldest == nil ||
			e.createdAt.Before(oldest.createdAt) ||
			(e.createdAt.Equal(oldest.createdAt) && key < oldestKey) {
			oldestKey, oldest = key, e
		}
	}
	if oldest != nil {
		delete(n.entries, oldestKey)
		n.stats.Evictions++
	}
}
