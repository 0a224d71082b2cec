package main

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/dreamware/ballast/internal/cluster"
)

// errNoStandby indicates the scaler asked for a worker when every standby
// address is already active.
var errNoStandby = errors.New("standby pool exhausted")

// standbyProvisioner hands out workers from a fixed pool of pre-deployed
// standby addresses. Provision activates the next free address under a fresh
// worker ID; Teardown returns the address to the pool.
//
// Addresses the provisioner never handed out (self-registered workers) are
// not its to reclaim, so Teardown ignores unknown worker IDs.
type standbyProvisioner struct {
	mu       sync.Mutex
	standby  []string
	active   map[string]string // worker ID -> address
	capacity int64
	weight   int
}

func newStandbyProvisioner(addrs []string, capacity int64, weight int) *standbyProvisioner {
	return &standbyProvisioner{
		standby:  slices.Clone(addrs),
		active:   make(map[string]string),
		capacity: capacity,
		weight:   weight,
	}
}

func (p *standbyProvisioner) Provision(_ context.Context) (cluster.WorkerInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.standby) == 0 {
		return cluster.WorkerInfo{}, errNoStandby
	}

	addr := p.standby[0]
	p.standby = p.standby[1:]

	id := "standby-" + uuid.NewString()[:8]
	p.active[id] = addr
	log.Printf("activated standby %s @ %s", id, addr)

	return cluster.WorkerInfo{
		ID:       id,
		Addr:     addr,
		Capacity: p.capacity,
		Weight:   p.weight,
	}, nil
}

func (p *standbyProvisioner) Teardown(_ context.Context, info cluster.WorkerInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	addr, ok := p.active[info.ID]
	if !ok {
		return nil
	}
	delete(p.active, info.ID)
	p.standby = append(p.standby, addr)
	log.Printf("returned standby %s to the pool", addr)
	return nil
}

// Available reports how many standby addresses remain unactivated.
func (p *standbyProvisioner) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.standby)
}
