package datatier

import "errors"

var (
	// ErrKeyNotFound indicates the key does not exist at the endpoint that
	// owns it. Distinct from availability failures: the endpoint answered,
	// the key is simply absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrPartitionUnavailable indicates the endpoint owning the key could
	// not serve the operation. Wraps the underlying transport or driver
	// error.
	ErrPartitionUnavailable = errors.New("data partition unavailable")

	// ErrConfigConflict indicates a router configured with both
	// replication and sharding, or with neither. The modes are mutually
	// exclusive per deployment and never silently mixed.
	ErrConfigConflict = errors.New("conflicting data-tier configuration")

	// ErrUnknownConsistency indicates a consistency level outside
	// {strong, eventual}.
	ErrUnknownConsistency = errors.New("unknown consistency level")
)
