package metrics

import (
	"sync"

	"github.com/dreamware/ballast/internal/events"
)

// Collector wraps the package metrics with the pool label pre-filled and
// knows how to feed them from an event bus.
type Collector struct {
	pool string

	mu   sync.Mutex
	bus  *events.Bus
	subs []string
}

// NewCollector creates a Collector for the given pool.
func NewCollector(pool string) *Collector {
	return &Collector{pool: pool}
}

// Attach subscribes the collector to the bus. Every event the control plane
// publishes is translated into a metric update. A nil bus is ignored.
func (c *Collector) Attach(bus *events.Bus) {
	if bus == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus != nil {
		return
	}
	c.bus = bus
	c.subs = []string{
		bus.Subscribe("worker.added", c.onWorkerAdded),
		bus.Subscribe("worker.removed", c.onWorkerRemoved),
		bus.Subscribe("health.transition", c.onHealthTransition),
		bus.Subscribe("scale.action", c.onScaleAction),
		bus.Subscribe("cache.lookup", c.onCacheLookup),
	}
}

// Detach removes the collector's subscriptions. Safe to call when never
// attached.
func (c *Collector) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus == nil {
		return
	}
	for _, id := range c.subs {
		c.bus.Unsubscribe(id)
	}
	c.bus = nil
	c.subs = nil
}

// IncDispatch increments the dispatch counter for an outcome
// ("ok" or "no_capacity").
func (c *Collector) IncDispatch(outcome string) {
	DispatchesTotal.WithLabelValues(c.pool, outcome).Inc()
}

// ObserveDispatchDuration records the time spent selecting a worker.
func (c *Collector) ObserveDispatchDuration(seconds float64) {
	DispatchDuration.WithLabelValues(c.pool).Observe(seconds)
}

func (c *Collector) onWorkerAdded(e events.Event) {
	if _, ok := e.(events.WorkerAdded); !ok {
		return
	}
	WorkersAddedTotal.WithLabelValues(c.pool).Inc()
	ActiveWorkers.WithLabelValues(c.pool).Inc()
}

func (c *Collector) onWorkerRemoved(e events.Event) {
	removed, ok := e.(events.WorkerRemoved)
	if !ok {
		return
	}
	WorkersRemovedTotal.WithLabelValues(c.pool, removed.Reason).Inc()
	ActiveWorkers.WithLabelValues(c.pool).Dec()
	if removed.Abandoned > 0 {
		AbandonedUnitsTotal.WithLabelValues(c.pool).Add(float64(removed.Abandoned))
	}
}

func (c *Collector) onHealthTransition(e events.Event) {
	transition, ok := e.(events.HealthTransition)
	if !ok {
		return
	}
	HealthTransitionsTotal.WithLabelValues(c.pool, transition.To).Inc()
	ProbeLatency.WithLabelValues(c.pool).Observe(transition.Latency.Seconds())
}

func (c *Collector) onScaleAction(e events.Event) {
	action, ok := e.(events.ScaleAction)
	if !ok {
		return
	}
	ScaleActionsTotal.WithLabelValues(c.pool, action.Action).Inc()
	PoolLoad.WithLabelValues(c.pool).Set(action.Load)
}

func (c *Collector) onCacheLookup(e events.Event) {
	lookup, ok := e.(events.CacheLookup)
	if !ok {
		return
	}
	result := "miss"
	if lookup.Hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(c.pool, result).Inc()
}
