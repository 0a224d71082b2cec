package events

import "time"

// Event is the interface all published events implement.
type Event interface {
	// EventType returns the event's type identifier.
	// Convention: "category.action" (e.g., "worker.added", "scale.action").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent carries the fields common to every event. Embed it in concrete
// event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Worker Membership Events
// -----------------------------------------------------------------------------

// WorkerAdded is emitted when a worker joins the registry, whether by
// self-registration or by an auto-scaling action.
type WorkerAdded struct {
	baseEvent
	WorkerID string
	Addr     string
	Capacity int64
	Weight   int
}

// NewWorkerAdded creates a WorkerAdded event.
func NewWorkerAdded(workerID, addr string, capacity int64, weight int) WorkerAdded {
	return WorkerAdded{
		baseEvent: newBaseEvent("worker.added"),
		WorkerID:  workerID,
		Addr:      addr,
		Capacity:  capacity,
		Weight:    weight,
	}
}

// WorkerRemoved is emitted when a worker leaves the registry. Abandoned is the
// in-flight count at removal time; it is non-zero only when a drain timed out.
type WorkerRemoved struct {
	baseEvent
	WorkerID  string
	Reason    string // "scale-down", "drain-timeout", "deregistered"
	Abandoned int64
}

// NewWorkerRemoved creates a WorkerRemoved event.
func NewWorkerRemoved(workerID, reason string, abandoned int64) WorkerRemoved {
	return WorkerRemoved{
		baseEvent: newBaseEvent("worker.removed"),
		WorkerID:  workerID,
		Reason:    reason,
		Abandoned: abandoned,
	}
}

// -----------------------------------------------------------------------------
// Health Events
// -----------------------------------------------------------------------------

// HealthTransition is emitted on every health state change
// (unknown→healthy, healthy→unhealthy, unhealthy→healthy).
type HealthTransition struct {
	baseEvent
	WorkerID string
	From     string
	To       string
	Latency  time.Duration // last observed probe latency
}

// NewHealthTransition creates a HealthTransition event.
func NewHealthTransition(workerID, from, to string, latency time.Duration) HealthTransition {
	return HealthTransition{
		baseEvent: newBaseEvent("health.transition"),
		WorkerID:  workerID,
		From:      from,
		To:        to,
		Latency:   latency,
	}
}

// -----------------------------------------------------------------------------
// Scaling Events
// -----------------------------------------------------------------------------

// ScaleAction is emitted when the auto-scaler adds or removes a worker.
type ScaleAction struct {
	baseEvent
	Action   string // "scale-up" or "scale-down"
	WorkerID string
	Load     float64 // aggregate load percentage at decision time
	Reason   string
}

// NewScaleAction creates a ScaleAction event.
func NewScaleAction(action, workerID string, load float64, reason string) ScaleAction {
	return ScaleAction{
		baseEvent: newBaseEvent("scale.action"),
		Action:    action,
		WorkerID:  workerID,
		Load:      load,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Cache Events
// -----------------------------------------------------------------------------

// CacheLookup is emitted on every cache Get.
type CacheLookup struct {
	baseEvent
	Key  string
	Node string // owning cache node; empty when no node was reachable
	Hit  bool
}

// NewCacheLookup creates a CacheLookup event.
func NewCacheLookup(key, node string, hit bool) CacheLookup {
	return CacheLookup{
		baseEvent: newBaseEvent("cache.lookup"),
		Key:       key,
		Node:      node,
		Hit:       hit,
	}
}
