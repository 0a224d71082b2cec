// Package cache implements the partitioned TTL cache.
// This file implements the consistent-hash ring that maps keys to nodes.
package cache

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

// Ring is a consistent-hash ring with virtual nodes. Each physical node
// owns virtualNodes points on the ring; a key belongs to the first point at
// or clockwise after its own hash. Virtual nodes smooth the key
// distribution, and membership changes move only the keys adjacent to the
// added or removed points — the property a plain modulo scheme lacks.
// Thread-safe: all methods are safe for concurrent access.
type Ring struct {
	mu           sync.RWMutex
	virtualNodes int
	points       []uint32          // sorted ring positions
	owners       map[uint32]string // ring position -> node ID
}

// NewRing creates an empty ring with virtualNodes points per node. Values
// below one are raised to one.
func NewRing(virtualNodes int) *Ring {
	if virtualNodes < 1 {
		virtualNodes = 1
	}
	return &Ring{
		virtualNodes: virtualNodes,
		owners:       make(map[uint32]string),
	}
}

// Add places a node's virtual points on the ring. Adding an existing node
// is a no-op.
func (r *Ring) Add(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.points {
		if r.owners[p] == nodeID {
			return
		}
	}

	for i := 0; i < r.virtualNodes; i++ {
		p := crc32.ChecksumIEEE([]byte(nodeID + "#" + strconv.Itoa(i)))
		r.points = append(r.points, p)
		r.owners[p] = nodeID
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i] < r.points[j] })
}

// Remove takes a node's virtual points off the ring. Keys it owned flow to
// the next point clockwise; every other key keeps its owner.
func (r *Ring) Remove(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.points[:0]
	for _, p := range r.points {
		if r.owners[p] == nodeID {
			delete(r.owners, p)
			continue
		}
		kept = append(kept, p)
	}
	r.points = kept
}

// Owner returns the node that owns key. ok is false on an empty ring.
func (r *Ring) Owner(key string) (nodeID string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.points) == 0 {
		return "", false
	}

	h := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(r.points), func(i int) bool {
		return r.points[i] >= h
	})
	if idx == len(r.points) {
		idx = 0 // wrap past the top of the ring
	}
	return r.owners[r.points[idx]], true
}

// Nodes returns the distinct node IDs on the ring, sorted.
func (r *Ring) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var nodes []string
	for _, id := range r.owners {
		if !seen[id] {
			seen[id] = true
			nodes = append(nodes, id)
		}
	}
	sort.Strings(nodes)
	return nodes
}
