// Package events is a small publish/subscribe bus used to tell mounted
// headers that a session started or ended.
package events

import (
	"context"
	"sync"
	"time"
)

type Channel string

const (
	SignedIn  Channel = "signedIn"
	SignedOut Channel = "signedOut"
)

// Event is the payload delivered to handlers. Subscribers are free to
// ignore it.
type Event struct {
	Channel Channel
	Subject string
	At      time.Time
}

type Handler func(ctx context.Context, e Event)

// Handle identifies one registration. The zero Handle is never issued.
type Handle struct {
	channel Channel
	id      uint64
}

func (h Handle) Channel() Channel { return h.channel }

type listener struct {
	id uint64
	fn Handler
}

// Bus dispatches synchronously on the publisher's goroutine. Handlers are
// called in subscription order and without the bus lock held, so a handler
// may subscribe or unsubscribe.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[Channel][]listener
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[Channel][]listener)}
}

func (b *Bus) Subscribe(ch Channel, fn Handler) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[ch] = append(b.listeners[ch], listener{id: b.nextID, fn: fn})
	return Handle{channel: ch, id: b.nextID}
}

// Unsubscribe removes the registration. Unknown or already released handles
// are ignored.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[h.channel]
	for i, l := range ls {
		if l.id == h.id {
			ls = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(ls) == 0 {
		delete(b.listeners, h.channel)
		return
	}
	b.listeners[h.channel] = ls
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	ls := append([]listener(nil), b.listeners[e.Channel]...)
	b.mu.RUnlock()
	for _, l := range ls {
		l.fn(ctx, e)
	}
}

// Len reports the number of live registrations across all channels.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, ls := range b.listeners {
		n += len(ls)
	}
	return n
}
