// Package cache implements the partitioned TTL cache.
// This file implements the cluster facade: key-to-node routing, node
// membership, and the background sweep loop.
package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dreamware/ballast/internal/events"
)

// Config holds the cluster's tunables. Zero values are replaced with the
// defaults noted on each field.
type Config struct {
	// VirtualNodes per physical node on the ring. Default 64.
	VirtualNodes int
	// MaxEntriesPerNode bounds each partition; at the bound the
	// oldest-inserted entry is evicted first. Default 1024.
	MaxEntriesPerNode int
	// SweepInterval between background expiry passes. Default 30s.
	SweepInterval time.Duration
	// Bus receives CacheLookup events; may be nil.
	Bus *events.Bus
}

// Cluster routes cache operations to the owning node via the ring. Nodes
// are in-process partitions: adding one moves only the keys adjacent to its
// ring points, and access to different nodes never contends on a shared
// lock.
// Thread-safe: all methods are safe for concurrent access.
type Cluster struct {
	ring       *Ring
	bus        *events.Bus
	mu         sync.RWMutex
	nodes      map[string]*Node
	maxEntries int
	interval   time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewCluster creates an empty cluster.
//
// Example:
//
//	cluster := cache.NewCluster(cache.Config{VirtualNodes: 64})
//	for i := 1; i <= 3; i++ {
//	    cluster.AddNode(fmt.Sprintf("cache-%d", i))
//	}
func NewCluster(cfg Config) *Cluster {
	if cfg.VirtualNodes <= 0 {
		cfg.VirtualNodes = 64
	}
	if cfg.MaxEntriesPerNode <= 0 {
		cfg.MaxEntriesPerNode = 1024
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cluster{
		ring:       NewRing(cfg.VirtualNodes),
		bus:        cfg.Bus,
		nodes:      make(map[string]*Node),
		maxEntries: cfg.MaxEntriesPerNode,
		interval:   cfg.SweepInterval,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddNode creates a new partition and places it on the ring.
func (c *Cluster) AddNode(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	c.nodes[id] = newNode(id, c.maxEntries)
	c.ring.Add(id)
	return nil
}

// RemoveNode drops a partition and its ring points. Entries it held are
// gone; keys it owned now map to the next node clockwise and read as misses
// until repopulated. Reports whether the node existed.
func (c *Cluster) RemoveNode(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.nodes[id]; !exists {
		return false
	}
	delete(c.nodes, id)
	c.ring.Remove(id)
	return true
}

// NodeFor returns the ID of the node that owns key. ok is false when the
// ring is empty.
func (c *Cluster) NodeFor(key string) (nodeID string, ok bool) {
	return c.ring.Owner(key)
}

// Get returns the cached value for key. An unavailable partition degrades
// to a miss: callers fall back to the source of truth either way, so a
// routing gap and a cold key look the same here.
func (c *Cluster) Get(key string) ([]byte, bool) {
	node, ok := c.owner(key)
	if !ok {
		c.bus.Publish(events.NewCacheLookup(key, "", false))
		return nil, false
	}

	value, hit := node.Get(key)
	c.bus.Publish(events.NewCacheLookup(key, node.ID(), hit))
	return value, hit
}

// Set stores value under key on its owning node. A ttl of zero or below
// means no expiry.
//
// Returns:
//   - error: ErrPartitionUnavailable when the key's partition has no live
//     node
func (c *Cluster) Set(key string, value []byte, ttl time.Duration) error {
	node, ok := c.owner(key)
	if !ok {
		return fmt.Errorf("%w: key %q", ErrPartitionUnavailable, key)
	}
	node.Set(key, value, ttl)
	return nil
}

// Invalidate removes key from its owning node.
//
// Returns:
//   - error: ErrPartitionUnavailable when the key's partition has no live
//     node; an absent key is not an error
func (c *Cluster) Invalidate(key string) error {
	node, ok := c.owner(key)
	if !ok {
		return fmt.Errorf("%w: key %q", ErrPartitionUnavailable, key)
	}
	node.Invalidate(key)
	return nil
}

// Stats returns a per-node snapshot of cache counters.
func (c *Cluster) Stats() map[string]Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Stats, len(c.nodes))
	for id, node := range c.nodes {
		out[id] = node.Stats()
	}
	return out
}

// Len returns the total entry count across all nodes.
func (c *Cluster) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, node := range c.nodes {
		total += node.Len()
	}
	return total
}

// Start runs the background sweep loop in the current goroutine and blocks
// until the context is canceled or Stop is called. Each pass walks the
// nodes and removes expired entries, bounding memory between reads; lazy
// expiry keeps Get correct even if the loop never runs.
func (c *Cluster) Start(ctx context.Context) {
	c.wg.Add(1)
	defer c.wg.Done()

	if ctx == nil {
		ctx = c.ctx
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Printf("Cache sweeper started with interval %v", c.interval)

	for {
		select {
		case <-ticker.C:
			c.sweepAll()
		case <-ctx.Done():
			log.Println("Cache sweeper stopping due to context cancellation")
			return
		case <-c.ctx.Done():
			log.Println("Cache sweeper stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the sweep loop and waits for an in-progress pass to finish.
func (c *Cluster) Stop() {
	c.cancel()
	c.wg.Wait()
	log.Println("Cache sweeper stopped")
}

// sweepAll runs one expiry pass over every node. Each node is swept under
// its own lock; the pass holds the cluster lock only long enough to
// snapshot the node set.
func (c *Cluster) sweepAll() {
	c.mu.RLock()
	nodes := make([]*Node, 0, len(c.nodes))
	for _, node := range c.nodes {
		nodes = append(nodes, node)
	}
	c.mu.RUnlock()

	now := time.Now()
	removed := 0
	for _, node := range nodes {
		removed += node.sweep(now)
	}
	if removed > 0 {
		log.Printf("Cache sweep removed %d expired entries", removed)
	}
}

// owner resolves key to its live owning node.
func (c *Cluster) owner(key string) (*Node, bool) {
	id, ok := c.ring.Owner(key)
	if !ok {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	node, live := c.nodes[id]
	return node, live
}
