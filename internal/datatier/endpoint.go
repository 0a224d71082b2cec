// Package datatier routes persistent reads and writes across storage
// endpoints.
// This file defines the endpoint boundary and the in-memory implementation.
package datatier

import (
	"context"
	"sync"
)

// Endpoint is one storage location the router can address: a replica, a
// shard, or the primary. Implementations must be safe for concurrent use
// and must return ErrKeyNotFound for absent keys so the router can tell
// "not there" from "not reachable".
type Endpoint interface {
	// ID returns the endpoint's identity, used in routing logs and errors.
	ID() string

	// Get retrieves a value by key. Returns ErrKeyNotFound if the key
	// doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value, overwriting any existing value for the key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. No error if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}

// MemoryEndpoint is an in-memory Endpoint, the default data tier for
// deployments without an external database and the workhorse of the test
// suites. Values are copied on the way in and out.
// Thread-safe: all methods are safe for concurrent access.
type MemoryEndpoint struct {
	id   string
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryEndpoint creates an empty in-memory endpoint.
func NewMemoryEndpoint(id string) *MemoryEndpoint {
	return &MemoryEndpoint{
		id:   id,
		data: make(map[string][]byte),
	}
}

// ID returns the endpoint's identity.
func (m *MemoryEndpoint) ID() string { return m.id }

// Get retrieves a copy of the value for key.
func (m *MemoryEndpoint) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Put stores a copy of value under key.
func (m *MemoryEndpoint) Put(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stored
	return nil
}

// Delete removes a key-value pair.
func (m *MemoryEndpoint) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryEndpoint) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
