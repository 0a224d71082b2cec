package autoscale

import "errors"

var (
	// ErrInvalidBounds indicates a policy with min below one or max below
	// min.
	ErrInvalidBounds = errors.New("invalid worker count bounds")

	// ErrInvalidThresholds indicates a policy whose scale-down threshold
	// is not strictly below its scale-up threshold. Overlapping thresholds
	// would let a single load reading justify both directions.
	ErrInvalidThresholds = errors.New("invalid load thresholds")

	// ErrDrainTimeout indicates a draining worker still held in-flight
	// work when the drain deadline passed. The scaler logs it and removes
	// the worker anyway; the abandoned count travels on the worker.removed
	// event.
	ErrDrainTimeout = errors.New("drain deadline exceeded")
)
