package events

import (
	"context"
	"sync"
)

// Registry hands out one Bus per device so that a sign-out in one browser
// does not flip headers mounted for another. Buses are reference counted:
// every Acquire needs a matching Release.
type Registry struct {
	mu    sync.Mutex
	buses map[string]*entry
}

type entry struct {
	bus  *Bus
	refs int
}

func NewRegistry() *Registry {
	return &Registry{buses: make(map[string]*entry)}
}

func (r *Registry) Acquire(device string) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buses[device]
	if !ok {
		e = &entry{bus: NewBus()}
		r.buses[device] = e
	}
	e.refs++
	return e.bus
}

func (r *Registry) Release(device string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buses[device]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.buses, device)
	}
}

// Publish delivers ev on the device's bus if one is held. It never creates
// a bus.
func (r *Registry) Publish(ctx context.Context, device string, ev Event) {
	r.mu.Lock()
	e, ok := r.buses[device]
	r.mu.Unlock()
	if ok {
		e.bus.Publish(ctx, ev)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buses)
}
