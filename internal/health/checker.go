// Package health provides worker liveness tracking for the balancer.
// This file implements the periodic prober that drives the status store.
package health

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dreamware/ballast/internal/cluster"
	"github.com/dreamware/ballast/internal/events"
)

// ProbeFunc asks one worker whether it is alive and reports how long the
// probe took. Implementations must honor ctx; the checker bounds it by the
// latency budget. The default implementation performs an HTTP GET against
// the worker's /health endpoint.
type ProbeFunc func(ctx context.Context, worker cluster.WorkerInfo) (alive bool, latency time.Duration)

// Config holds the checker's tunables. Zero values are replaced with the
// defaults noted on each field.
type Config struct {
	// Interval between probe sweeps. Default 5s.
	Interval time.Duration
	// LatencyBudget bounds each probe; a probe that is alive but slower
	// than the budget still counts as a failure. Default 2s.
	LatencyBudget time.Duration
	// FailureThreshold is the number of consecutive failed probes before a
	// worker turns unhealthy. Default 1.
	FailureThreshold int
	// Bus receives HealthTransition events; may be nil.
	Bus *events.Bus
}

// Checker probes every registered worker on a fixed interval and feeds the
// results into the status store. It owns detection only: a worker unhealthy
// past the scaler's grace period becomes a removal candidate, but removal is
// always the auto-scaler's decision.
// Thread-safe: all methods are safe for concurrent access.
type Checker struct {
	store        *Store
	probe        ProbeFunc
	onTransition func(workerID string, from, to Status)
	bus          *events.Bus
	ctx          context.Context
	cancel       context.CancelFunc
	interval     time.Duration
	budget       time.Duration
	threshold    int
	httpClient   *http.Client
	wg           sync.WaitGroup
}

// NewChecker creates a checker writing into store. A nil store gets a fresh
// one (retrievable via Store), but sharing one instance with the router and
// auto-scaler is the intended wiring.
//
// Example:
//
//	store := health.NewStore()
//	checker := health.NewChecker(store, health.Config{Interval: 5 * time.Second})
//	go checker.Start(ctx, registry.Infos)
func NewChecker(store *Store, cfg Config) *Checker {
	if store == nil {
		store = NewStore()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.LatencyBudget <= 0 {
		cfg.LatencyBudget = 2 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Checker{
		store:      store,
		bus:        cfg.Bus,
		ctx:        ctx,
		cancel:     cancel,
		interval:   cfg.Interval,
		budget:     cfg.LatencyBudget,
		threshold:  cfg.FailureThreshold,
		httpClient: &http.Client{Timeout: cfg.LatencyBudget},
	}
	c.probe = c.defaultProbe
	return c
}

// Store returns the status store the checker writes into.
func (c *Checker) Store() *Store {
	return c.store
}

// SetProbeFunc overrides the default HTTP probe. Useful for tests and for
// transports other than HTTP. Must be called before Start.
func (c *Checker) SetProbeFunc(probe ProbeFunc) {
	c.probe = probe
}

// SetOnTransition sets a callback invoked on every status change. The
// callback runs on its own goroutine so it can take locks the checker's
// sweep does not hold. Must be called before Start.
//
// Example:
//
//	checker.SetOnTransition(func(workerID string, from, to health.Status) {
//	    log.Printf("worker %s: %s -> %s", workerID, from, to)
//	})
func (c *Checker) SetOnTransition(callback func(workerID string, from, to Status)) {
	c.onTransition = callback
}

// Start begins probing in the current goroutine and blocks until the context
// is canceled or Stop is called. The first sweep runs immediately, so a
// freshly registered pool reaches a known state after one interval at most.
//
// Parameters:
//   - ctx: Context for cancellation (nil falls back to the internal context)
//   - workerProvider: Function returning the current worker set
func (c *Checker) Start(ctx context.Context, workerProvider func() []cluster.WorkerInfo) {
	c.wg.Add(1)
	defer c.wg.Done()

	if ctx == nil {
		ctx = c.ctx
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Printf("Health checker started with interval %v, budget %v", c.interval, c.budget)

	c.sweep(ctx, workerProvider())

	for {
		select {
		case <-ticker.C:
			c.sweep(ctx, workerProvider())
		case <-ctx.Done():
			log.Println("Health checker stopping due to context cancellation")
			return
		case <-c.ctx.Done():
			log.Println("Health checker stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the check loop and waits for in-flight probes to finish.
func (c *Checker) Stop() {
	c.cancel()
	c.wg.Wait()
	log.Println("Health checker stopped")
}

// sweep probes all workers in parallel, applies the results, and prunes
// records of workers that have left the registry. Each probe is bounded by
// the latency budget, so a sweep takes at most one budget regardless of pool
// size.
func (c *Checker) sweep(ctx context.Context, workers []cluster.WorkerInfo) {
	active := make(map[string]bool, len(workers))

	var wg sync.WaitGroup
	for _, w := range workers {
		active[w.ID] = true
		wg.Add(1)
		go func(w cluster.WorkerInfo) {
			defer wg.Done()
			c.probeWorker(ctx, w)
		}(w)
	}
	wg.Wait()

	for _, id := range c.store.prune(active) {
		log.Printf("Removed worker %s from health tracking", id)
	}
}

// probeWorker runs one probe and records the outcome. An alive result slower
// than the budget counts as a failure: the worker may be up, but it is not
// serving within the envelope the router relies on.
func (c *Checker) probeWorker(ctx context.Context, w cluster.WorkerInfo) {
	probeCtx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	alive, latency := c.probe(probeCtx, w)
	if alive && latency > c.budget {
		alive = false
	}

	from, to := c.store.observe(w.ID, alive, latency, c.threshold)
	if from == to {
		return
	}

	switch to {
	case StatusUnhealthy:
		log.Printf("Worker %s marked unhealthy (latency %v)", w.ID, latency)
	case StatusHealthy:
		if from == StatusUnhealthy {
			log.Printf("Worker %s recovered and is now healthy", w.ID)
		}
	}

	if c.onTransition != nil {
		// Call the callback without holding any checker state.
		go c.onTransition(w.ID, from, to)
	}
	c.bus.Publish(events.NewHealthTransition(w.ID, string(from), string(to), latency))
}

// defaultProbe performs an HTTP GET against the worker's /health endpoint
// and measures wall-clock latency. Any transport error, timeout, or non-200
// response reads as not alive; probe failures are absorbed here and never
// escalate beyond the status store.
func (c *Checker) defaultProbe(ctx context.Context, w cluster.WorkerInfo) (bool, time.Duration) {
	// Handle both full URLs and host:port formats
	url := w.Addr
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	if !strings.HasSuffix(url, "/health") {
		url = strings.TrimRight(url, "/") + "/health"
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, time.Since(start)
	}
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return false, latency
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, latency
}
