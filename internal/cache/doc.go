// Package cache implements Ballast's partitioned in-memory TTL cache: a
// consistent-hash ring mapping keys to nodes, and independent per-node
// storage with lazy and swept expiry.
//
// # Overview
//
// The cluster is the single entry point: Get, Set, and Invalidate hash the
// key, resolve its owning node on the ring, and run the operation under
// that node's lock. Nodes share nothing — no cross-node locks, no
// cross-node transactions — so per-key linearizability on the owning node
// is the whole consistency story.
//
// # Architecture
//
//	        Get / Set / Invalidate
//	                 │
//	                 ▼
//	          ┌────────────┐     Owner(key)    ┌──────────┐
//	          │  Cluster   │ ────────────────▶ │   Ring   │
//	          └─────┬──────┘                   └──────────┘
//	                │ per-node lock             crc32, virtual nodes
//	     ┌──────────┼──────────┐
//	     ▼          ▼          ▼
//	 ┌────────┐ ┌────────┐ ┌────────┐
//	 │ Node A │ │ Node B │ │ Node C │   map + RWMutex each
//	 └────────┘ └────────┘ └────────┘
//
// # Partitioning
//
// Keys map to nodes through a consistent-hash ring with virtual nodes
// (crc32, 64 points per node by default). The alternative — hashing the key
// modulo the node count — was rejected: the node set here changes at
// runtime, and under modulo a single membership change remaps nearly every
// key, invalidating the whole cache at once. On the ring, adding or
// removing a node moves only the keys adjacent to its points; every other
// key keeps its owner.
//
// # Expiry and Eviction
//
// Every entry carries its TTL deadline. Expiry is enforced twice over:
// lazily, when a read finds the deadline passed and removes the entry on
// the spot; and proactively, by a background sweep loop that walks all
// nodes each interval so expired entries cannot pin memory between reads.
// Separately from TTL, each node caps its entry count; inserting past the
// cap evicts the oldest-inserted entry first.
//
// # Unavailable Partitions
//
// When a key's partition has no live node, reads degrade to a miss — the
// caller falls back to the source of truth exactly as it would on a cold
// key — while Set and Invalidate surface ErrPartitionUnavailable, because
// silently dropping a write or a purge would leave callers believing state
// they never made.
//
// # Usage Example
//
//	cluster := cache.NewCluster(cache.Config{
//	    VirtualNodes:      64,
//	    MaxEntriesPerNode: 1024,
//	    SweepInterval:     30 * time.Second,
//	})
//	cluster.AddNode("cache-1")
//	cluster.AddNode("cache-2")
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go cluster.Start(ctx)
//	defer cluster.Stop()
//
//	cluster.Set("user:42", []byte(`{"name":"jo"}`), 5*time.Minute)
//	if value, ok := cluster.Get("user:42"); ok {
//	    // serve from cache
//	    _ = value
//	}
//
// # Limitations and Future Work
//
// Current limitations that will be addressed:
//   - Eviction scans the partition for its oldest entry; an insertion-order
//     index would make the cap O(1) under sustained churn
//   - A removed node's entries are dropped, not handed off to the next
//     owner clockwise
//   - No size-based bound; the cap counts entries, not bytes
//
// # See Also
//
// Related packages:
//   - internal/events: lookup event definitions
//   - internal/datatier: the persistent tier behind this cache
package cache
