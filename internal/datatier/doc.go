// Package datatier implements Ballast's persistent-store routing: one
// router, two mutually exclusive disciplines, and pluggable storage
// endpoints (in-memory or SQL).
//
// # Overview
//
// The router sits between request handlers and wherever durable data
// actually lives. Callers see Write, Read with a consistency level, and
// Delete; the router decides which endpoint serves each call based on the
// deployment's mode. A deployment is either replicated or sharded — the
// constructor rejects configurations naming both or neither, because the
// two disciplines make incompatible promises and mixing them silently
// would let a read land on an endpoint that never sees the written key.
//
// # Replication Mode
//
//	        Write(key, value)                Read(key, strong)
//	              │                                │
//	              ▼                                ▼
//	        ┌───────────┐   async copies     ┌───────────┐
//	        │  Primary  │ ──────┬──────▶     │  Primary  │
//	        └───────────┘       │            └───────────┘
//	                            ▼
//	                 ┌───────────┐ ┌───────────┐
//	                 │ Replica 1 │ │ Replica 2 │ ◀── Read(key, eventual)
//	                 └───────────┘ └───────────┘      (rotating)
//
// Writes are acknowledged once the primary has them; replica copies run on
// bounded background goroutines with their own timeouts, and a failed copy
// is logged, never surfaced to the writer. Strong reads always go to the
// primary, so they see every acknowledged write. Eventual reads rotate over
// the replicas and may trail the primary by the propagation lag — that lag
// is part of this mode's contract, documented rather than hidden, and
// callers who cannot tolerate it ask for strong.
//
// # Sharded Mode
//
// An FNV-1a hash of the key, modulo the shard count, picks exactly one
// endpoint for all operations on that key. There is no replication within
// this mode; consistency levels are accepted and ignored because only one
// copy exists.
//
// Plain modulo placement is the deliberately simple choice here, and it is
// only sound because the shard set is fixed for the lifetime of the
// process: shards come from configuration at startup and never change at
// runtime, so the mapping never shifts under live keys. The cache layer,
// whose node set does change at runtime, uses a consistent-hash ring for
// exactly this reason — see internal/cache.
//
// # Error Discipline
//
// Endpoints distinguish two failure classes and the router keeps them
// distinct for callers:
//   - ErrKeyNotFound: the owning endpoint answered and the key is absent
//   - ErrPartitionUnavailable: the owning endpoint could not answer; the
//     underlying driver or transport error is wrapped inside
//
// # Endpoints
//
// MemoryEndpoint serves tests and database-less deployments. SQLEndpoint
// speaks PostgreSQL, MySQL, or SQLite through database/sql, one table of
// (data_key, data_value) rows per endpoint; the three dialects differ only
// in placeholder and upsert syntax.
//
// # Usage Example
//
//	router, err := datatier.NewRouter(datatier.Config{
//	    Primary: datatier.NewMemoryEndpoint("primary"),
//	    Replicas: []datatier.Endpoint{
//	        datatier.NewMemoryEndpoint("replica-1"),
//	        datatier.NewMemoryEndpoint("replica-2"),
//	    },
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create data router: %v", err)
//	}
//	defer router.Close()
//
//	if err := router.Write(ctx, "user:42", []byte("alice")); err != nil {
//	    return err
//	}
//	value, err := router.Read(ctx, "user:42", datatier.ConsistencyStrong)
//
// # Limitations and Future Work
//
// Current limitations that will be addressed:
//   - No replica catch-up: a replica that was down during a write stays
//     behind until the key is written again
//   - No read repair or propagation retry; a failed copy is only logged
//   - Sharded mode cannot re-shard without an external migration
//
// # See Also
//
// Related packages:
//   - internal/cache: the volatile tier in front of this one
//   - internal/cluster: shared wire types for the HTTP surface
package datatier
