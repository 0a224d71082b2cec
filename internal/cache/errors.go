package cache

import "errors"

var (
	// ErrPartitionUnavailable indicates the key's owning partition has no
	// live node. Writes and invalidations surface it; reads degrade to a
	// miss instead.
	ErrPartitionUnavailable = errors.New("cache partition unavailable")

	// ErrDuplicateNode indicates an AddNode reusing an existing node ID.
	ErrDuplicateNode = errors.New("cache node already exists")
)
