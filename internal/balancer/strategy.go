// Package balancer implements the request-routing core: worker registry,
// selection strategies, and the dispatch router.
// This file implements the closed set of selection strategies.
package balancer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Strategy names accepted by ParseStrategy. The set is closed: routing-time
// dispatch goes through the Strategy interface, never through name matching.
const (
	StrategyRoundRobin         = "round_robin"
	StrategyWeightedRoundRobin = "weighted_round_robin"
	StrategyLeastConnections   = "least_connections"
)

// Strategy produces the dispatch attempt order for one unit of work.
type Strategy interface {
	// Name returns the strategy's configuration name.
	Name() string

	// Order returns the eligible workers in attempt order, most preferred
	// first. The router walks the order and dispatches to the first worker
	// with a free slot, so saturated candidates cost a fall-through rather
	// than a failed dispatch. eligible is a snapshot in registration order;
	// Order must not mutate it.
	Order(eligible []*Worker) []*Worker
}

// ParseStrategy resolves a configured strategy name. The registry parameter
// feeds the shared rotation cursor to round_robin. An unrecognized name
// fails with ErrUnknownStrategy; the wiring layer treats that as fatal at
// startup, so a misconfigured deployment never routes a single request.
func ParseStrategy(name string, registry *Registry) (Strategy, error) {
	switch name {
	case StrategyRoundRobin:
		return &roundRobin{registry: registry}, nil
	case StrategyWeightedRoundRobin:
		return &weightedRoundRobin{}, nil
	case StrategyLeastConnections:
		return &leastConnections{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// roundRobin rotates the shared registry cursor over the eligible snapshot.
// The cursor only ever increases and is taken modulo the eligible count at
// call time, so membership changes between calls re-wrap instead of
// faulting.
type roundRobin struct {
	registry *Registry
}

func (s *roundRobin) Name() string { return StrategyRoundRobin }

func (s *roundRobin) Order(eligible []*Worker) []*Worker {
	n := len(eligible)
	if n == 0 {
		return nil
	}

	start := s.registry.NextIndex(n)
	out := make([]*Worker, 0, n)
	out = append(out, eligible[start:]...)
	out = append(out, eligible[:start]...)
	return out
}

// weightedRoundRobin expands each worker into weight virtual slots and
// rotates over the expanded sequence. The expansion is rebuilt, and its
// cursor reset, whenever the eligible membership or any weight changes;
// between changes a full cycle of sum(weights) dispatches hits each worker
// exactly weight times.
type weightedRoundRobin struct {
	mu          sync.Mutex
	expanded    []*Worker
	fingerprint string
	cursor      uint64
}

func (s *weightedRoundRobin) Name() string { return StrategyWeightedRoundRobin }

func (s *weightedRoundRobin) Order(eligible []*Worker) []*Worker {
	n := len(eligible)
	if n == 0 {
		return nil
	}

	s.mu.Lock()
	fp := expansionFingerprint(eligible)
	if fp != s.fingerprint {
		s.expanded = expandByWeight(eligible)
		s.fingerprint = fp
		s.cursor = 0
	}
	preferred := s.expanded[int(s.cursor%uint64(len(s.expanded)))]
	s.cursor++
	s.mu.Unlock()

	// Fall-through order: the remaining workers rotated from the preferred
	// one's position, each appearing once.
	idx := 0
	for i, w := range eligible {
		if w == preferred {
			idx = i
			break
		}
	}
	out := make([]*Worker, 0, n)
	out = append(out, eligible[idx:]...)
	out = append(out, eligible[:idx]...)
	return out
}

// expansionFingerprint captures the identity and weight of every eligible
// worker in order, so both membership and weight changes invalidate the
// expansion.
func expansionFingerprint(eligible []*Worker) string {
	var b strings.Builder
	for _, w := range eligible {
		b.WriteString(w.ID())
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(w.Weight()))
		b.WriteByte(';')
	}
	return b.String()
}

func expandByWeight(eligible []*Worker) []*Worker {
	total := 0
	for _, w := range eligible {
		total += w.Weight()
	}
	out := make([]*Worker, 0, total)
	for _, w := range eligible {
		for i := 0; i < w.Weight(); i++ {
			out = append(out, w)
		}
	}
	return out
}

// leastConnections orders eligible workers by current in-flight count,
// lowest first, with ties broken by registration order. The stable sort over
// the registration-ordered snapshot is what makes the tie-break
// deterministic and therefore testable.
type leastConnections struct{}

func (s *leastConnections) Name() string { return StrategyLeastConnections }

func (s *leastConnections) Order(eligible []*Worker) []*Worker {
	n := len(eligible)
	if n == 0 {
		return nil
	}

	out := make([]*Worker, n)
	copy(out, eligible)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InFlight() < out[j].InFlight()
	})
	return out
}
