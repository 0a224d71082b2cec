package balancer

import "errors"

var (
	// ErrNoCapacity indicates every eligible worker is saturated (or none
	// exists). Surfaced to the dispatch caller; whether to retry is the
	// caller's decision, never this package's.
	ErrNoCapacity = errors.New("no worker with spare capacity")

	// ErrUnknownStrategy indicates a strategy name outside the supported
	// set {round_robin, weighted_round_robin, least_connections}.
	// Treated as fatal at startup by the wiring layer.
	ErrUnknownStrategy = errors.New("unknown routing strategy")

	// ErrDuplicateWorker indicates a registration reusing an ID that is
	// already in the registry.
	ErrDuplicateWorker = errors.New("worker already registered")

	// ErrInvalidWorker indicates a registration with an empty ID or a
	// capacity below one.
	ErrInvalidWorker = errors.New("invalid worker registration")
)
