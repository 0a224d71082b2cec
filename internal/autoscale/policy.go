// Package autoscale grows and shrinks the worker pool in response to
// aggregate load.
// This file implements the scaling policy: thresholds, bounds, and
// per-direction cooldowns.
package autoscale

import (
	"fmt"
	"sync"
	"time"
)

// Action is the direction of a scaling decision.
type Action string

const (
	// ActionScaleUp means one worker should be added.
	ActionScaleUp Action = "scale_up"

	// ActionScaleDown means one worker should be removed.
	ActionScaleDown Action = "scale_down"

	// ActionNone means no change is needed this tick.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Decision is the result of evaluating the policy against one load reading.
type Decision struct {
	// Action is the recommended scaling action.
	Action Action

	// Load is the aggregate load percentage the decision was based on.
	Load float64

	// Reason is a human-readable explanation of the decision.
	Reason string
}

// Default policy values.
const (
	defaultMinWorkers         = 1
	defaultMaxWorkers         = 8
	defaultScaleUpThreshold   = 70.0
	defaultScaleDownThreshold = 30.0
	defaultCooldown           = 30 * time.Second
)

// Option configures a Policy.
type Option func(*Policy)

// WithBounds sets the minimum and maximum worker counts the policy will
// scale between.
func WithBounds(min, max int) Option {
	return func(p *Policy) {
		p.minWorkers = min
		p.maxWorkers = max
	}
}

// WithThresholds sets the load percentages that trigger scaling. Load above
// up recommends adding a worker; load below down recommends removing one.
func WithThresholds(up, down float64) Option {
	return func(p *Policy) {
		p.scaleUpThreshold = up
		p.scaleDownThreshold = down
	}
}

// WithCooldowns sets the per-direction windows during which a repeat action
// in the same direction is suppressed. The windows are independent: a
// scale-up never delays a scale-down, and vice versa.
func WithCooldowns(up, down time.Duration) Option {
	return func(p *Policy) {
		p.upCooldown = up
		p.downCooldown = down
	}
}

// Policy decides whether the pool should grow, shrink, or hold, one worker
// at a time. It carries the cooldown bookkeeping, so a single instance must
// be shared by everything that evaluates scaling for one pool.
// Thread-safe: Evaluate may be called from concurrent goroutines.
type Policy struct {
	mu                 sync.Mutex
	minWorkers         int
	maxWorkers         int
	scaleUpThreshold   float64
	scaleDownThreshold float64
	upCooldown         time.Duration
	downCooldown       time.Duration
	lastScaleUp        time.Time
	lastScaleDown      time.Time
	now                func() time.Time
}

// NewPolicy creates a Policy with the given options. Unset options use
// defaults: bounds 1..8, thresholds 70%/30%, cooldowns 30s each.
//
// Returns:
//   - *Policy: the validated policy
//   - error: ErrInvalidBounds or ErrInvalidThresholds on a configuration
//     that could never scale sanely
func NewPolicy(opts ...Option) (*Policy, error) {
	p := &Policy{
		minWorkers:         defaultMinWorkers,
		maxWorkers:         defaultMaxWorkers,
		scaleUpThreshold:   defaultScaleUpThreshold,
		scaleDownThreshold: defaultScaleDownThreshold,
		upCooldown:         defaultCooldown,
		downCooldown:       defaultCooldown,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.minWorkers < 1 || p.maxWorkers < p.minWorkers {
		return nil, fmt.Errorf("%w: min %d, max %d", ErrInvalidBounds, p.minWorkers, p.maxWorkers)
	}
	if p.scaleDownThreshold >= p.scaleUpThreshold {
		return nil, fmt.Errorf("%w: down %.1f must be below up %.1f",
			ErrInvalidThresholds, p.scaleDownThreshold, p.scaleUpThreshold)
	}
	return p, nil
}

// Bounds returns the configured minimum and maximum worker counts.
func (p *Policy) Bounds() (min, max int) {
	return p.minWorkers, p.maxWorkers
}

// Evaluate maps one load reading and the current worker count to a scaling
// decision. load is a percentage (in-flight over capacity across healthy
// workers, times 100).
//
// An actionable decision opens that direction's cooldown window immediately:
// the window starts when the decision is made, not when the action
// completes, so an action that later aborts or fails cannot be retried until
// the window passes.
func (p *Policy) Evaluate(load float64, workerCount int) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	if load > p.scaleUpThreshold {
		if workerCount >= p.maxWorkers {
			return Decision{
				Action: ActionNone,
				Load:   load,
				Reason: fmt.Sprintf("load %.1f%% above threshold but already at maximum %d workers", load, p.maxWorkers),
			}
		}
		if !p.lastScaleUp.IsZero() && now.Sub(p.lastScaleUp) < p.upCooldown {
			return Decision{Action: ActionNone, Load: load, Reason: "scale-up cooldown active"}
		}
		p.lastScaleUp = now
		return Decision{
			Action: ActionScaleUp,
			Load:   load,
			Reason: fmt.Sprintf("load %.1f%% above threshold %.1f%% with %d/%d workers",
				load, p.scaleUpThreshold, workerCount, p.maxWorkers),
		}
	}

	if load < p.scaleDownThreshold {
		if workerCount <= p.minWorkers {
			return Decision{
				Action: ActionNone,
				Load:   load,
				Reason: fmt.Sprintf("load %.1f%% below threshold but already at minimum %d workers", load, p.minWorkers),
			}
		}
		if !p.lastScaleDown.IsZero() && now.Sub(p.lastScaleDown) < p.downCooldown {
			return Decision{Action: ActionNone, Load: load, Reason: "scale-down cooldown active"}
		}
		p.lastScaleDown = now
		return Decision{
			Action: ActionScaleDown,
			Load:   load,
			Reason: fmt.Sprintf("load %.1f%% below threshold %.1f%% with %d workers above minimum %d",
				load, p.scaleDownThreshold, workerCount, p.minWorkers),
		}
	}

	return Decision{Action: ActionNone, Load: load, Reason: "load within thresholds"}
}
