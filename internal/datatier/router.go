// Package datatier routes persistent reads and writes across storage
// endpoints.
// This file implements the mode-aware router: replication or sharding,
// never both.
package datatier

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Consistency is the read guarantee a caller asks for.
type Consistency string

const (
	// ConsistencyStrong reads the primary: a write acknowledged before the
	// read is always visible.
	ConsistencyStrong Consistency = "strong"
	// ConsistencyEventual reads a replica and may trail the primary by the
	// propagation lag. The lag is a documented property of this mode, not
	// something the router hides.
	ConsistencyEventual Consistency = "eventual"
)

// ParseConsistency resolves a consistency name, defaulting empty to
// eventual. Unknown names fail with ErrUnknownConsistency.
func ParseConsistency(name string) (Consistency, error) {
	switch Consistency(name) {
	case ConsistencyStrong:
		return ConsistencyStrong, nil
	case ConsistencyEventual, "":
		return ConsistencyEventual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownConsistency, name)
	}
}

// Mode is the routing discipline a deployment runs under.
type Mode string

const (
	// ModeReplication keeps a full copy on every endpoint: writes land on
	// the primary and fan out to replicas asynchronously.
	ModeReplication Mode = "replication"
	// ModeSharded splits the key space over the endpoints: each key lives
	// on exactly one shard, with no replication.
	ModeSharded Mode = "sharded"
)

// Config wires a Router. Exactly one mode must be configured: Primary
// (optionally with Replicas) for replication, or Shards for sharding.
type Config struct {
	// Primary is the write target in replication mode.
	Primary Endpoint
	// Replicas receive asynchronous copies of every primary write and
	// serve eventual reads. Valid only alongside Primary.
	Replicas []Endpoint
	// Shards are the endpoints of sharded mode. Order is significant: the
	// key-to-shard mapping depends on it, so it must be stable across
	// restarts of the same deployment.
	Shards []Endpoint
	// PropagationWorkers bounds concurrent replica writes. Default 4.
	PropagationWorkers int
	// PropagationTimeout bounds each replica write. Default 5s.
	PropagationTimeout time.Duration
}

// Router directs reads and writes to storage endpoints under exactly one of
// two disciplines.
//
// Replication mode: Write applies to the primary and returns; copies flow
// to the replicas on background goroutines. Strong reads go to the primary.
// Eventual reads rotate over the replicas and may not yet see the latest
// write.
//
// Sharded mode: an FNV-1a hash of the key modulo the shard count picks the
// one endpoint for both reads and writes. The shard set is fixed for the
// process lifetime — see the package documentation for why that makes the
// modulo mapping acceptable here.
// Thread-safe: all methods are safe for concurrent access.
type Router struct {
	mode        Mode
	primary     Endpoint
	replicas    []Endpoint
	shards      []Endpoint
	cursor      atomic.Uint64
	propSem     chan struct{}
	propTimeout time.Duration
	wg          sync.WaitGroup
}

// NewRouter validates the configuration and builds a router. Configuring
// both modes, neither mode, or replicas without a primary fails with
// ErrConfigConflict.
//
// Example:
//
//	router, err := datatier.NewRouter(datatier.Config{
//	    Primary:  datatier.NewMemoryEndpoint("primary"),
//	    Replicas: []datatier.Endpoint{datatier.NewMemoryEndpoint("replica-1")},
//	})
func NewRouter(cfg Config) (*Router, error) {
	replication := cfg.Primary != nil || len(cfg.Replicas) > 0
	sharded := len(cfg.Shards) > 0

	if replication && sharded {
		return nil, fmt.Errorf("%w: both replication and sharding configured", ErrConfigConflict)
	}
	if !replication && !sharded {
		return nil, fmt.Errorf("%w: no endpoints configured", ErrConfigConflict)
	}
	if replication && cfg.Primary == nil {
		return nil, fmt.Errorf("%w: replicas configured without a primary", ErrConfigConflict)
	}
	if cfg.PropagationWorkers <= 0 {
		cfg.PropagationWorkers = 4
	}
	if cfg.PropagationTimeout <= 0 {
		cfg.PropagationTimeout = 5 * time.Second
	}

	r := &Router{
		propSem:     make(chan struct{}, cfg.PropagationWorkers),
		propTimeout: cfg.PropagationTimeout,
	}
	if sharded {
		r.mode = ModeSharded
		r.shards = cfg.Shards
	} else {
		r.mode = ModeReplication
		r.primary = cfg.Primary
		r.replicas = cfg.Replicas
	}
	return r, nil
}

// Mode returns the routing discipline the router was configured with.
func (r *Router) Mode() Mode {
	return r.mode
}

// Write stores value under key. A nil error is the acknowledgement: the
// write is durable at its owning endpoint (the primary in replication
// mode, the key's shard in sharded mode). Replica propagation happens after
// the acknowledgement and its failures are logged, not surfaced.
func (r *Router) Write(ctx context.Context, key string, value []byte) error {
	if r.mode == ModeSharded {
		shard := r.shardFor(key)
		if err := shard.Put(ctx, key, value); err != nil {
			return r.unavailable(shard, err)
		}
		return nil
	}

	if err := r.primary.Put(ctx, key, value); err != nil {
		return r.unavailable(r.primary, err)
	}
	r.propagate(key, value, false)
	return nil
}

// Read retrieves the value for key under the requested consistency.
//
// Returns:
//   - []byte: the stored value
//   - error: ErrKeyNotFound if the owning endpoint does not hold the key;
//     an ErrPartitionUnavailable-wrapped error if it could not answer
func (r *Router) Read(ctx context.Context, key string, consistency Consistency) ([]byte, error) {
	endpoint := r.readTarget(key, consistency)
	value, err := endpoint.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, r.unavailable(endpoint, err)
	}
	return value, nil
}

// Delete removes key from its owning endpoint. In replication mode the
// deletion propagates to replicas the same way writes do.
func (r *Router) Delete(ctx context.Context, key string) error {
	if r.mode == ModeSharded {
		shard := r.shardFor(key)
		if err := shard.Delete(ctx, key); err != nil {
			return r.unavailable(shard, err)
		}
		return nil
	}

	if err := r.primary.Delete(ctx, key); err != nil {
		return r.unavailable(r.primary, err)
	}
	r.propagate(key, nil, true)
	return nil
}

// Close waits for in-flight replica propagations to finish. Call it on
// shutdown so acknowledged writes are not lost to a racing exit.
func (r *Router) Close() {
	r.wg.Wait()
}

// readTarget picks the endpoint a read goes to. Consistency has no effect
// in sharded mode: each key has exactly one copy.
func (r *Router) readTarget(key string, consistency Consistency) Endpoint {
	if r.mode == ModeSharded {
		return r.shardFor(key)
	}
	if consistency == ConsistencyStrong || len(r.replicas) == 0 {
		return r.primary
	}
	idx := int((r.cursor.Add(1) - 1) % uint64(len(r.replicas)))
	return r.replicas[idx]
}

// shardFor maps key to its shard. FNV-1a modulo the shard count: the same
// key always lands on the same shard as long as the shard list is stable.
func (r *Router) shardFor(key string) Endpoint {
	h := fnv.New32a()
	h.Write([]byte(key))
	return r.shards[int(h.Sum32())%len(r.shards)]
}

// propagate copies one primary mutation to every replica on background
// goroutines, bounded by the worker semaphore. Each copy gets its own
// detached context: the caller's request finishing must not cancel
// propagation of an acknowledged write.
func (r *Router) propagate(key string, value []byte, deletion bool) {
	for _, replica := range r.replicas {
		r.wg.Add(1)
		go func(replica Endpoint) {
			defer r.wg.Done()

			r.propSem <- struct{}{}
			defer func() { <-r.propSem }()

			ctx, cancel := context.WithTimeout(context.Background(), r.propTimeout)
			defer cancel()

			var err error
			if deletion {
				err = replica.Delete(ctx, key)
			} else {
				err = replica.Put(ctx, key, value)
			}
			if err != nil {
				log.Printf("Replica %s propagation failed for key %q: %v", replica.ID(), key, err)
			}
		}(replica)
	}
}

// unavailable wraps an endpoint failure as a partition-availability error.
func (r *Router) unavailable(endpoint Endpoint, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPartitionUnavailable, endpoint.ID(), err)
}
