// Package notify fans outbound engine events out to subscribers without
// ever blocking the publisher.
package notify

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrClosed   = errors.New("notify: bus is closed")
	ErrNotFound = errors.New("notify: subscriber not found")
)

// Stats counts deliveries to one subscriber.
type Stats struct {
	Sent    uint64
	Dropped uint64
}

type subscriber[E any] struct {
	ch      chan E
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Bus delivers each published event to every subscriber whose buffer
// has room. Events for a full subscriber are dropped and counted.
type Bus[E any] struct {
	mu        sync.RWMutex
	subs      map[uuid.UUID]*subscriber[E]
	published atomic.Uint64
	closed    bool
}

// New returns an empty bus.
func New[E any]() *Bus[E] {
	return &Bus[E]{subs: make(map[uuid.UUID]*subscriber[E])}
}

// Subscribe registers a subscriber with the given buffer size (at least 1).
// The channel is closed by Unsubscribe or Close.
func (b *Bus[E]) Subscribe(buffer int) (uuid.UUID, <-chan E, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return uuid.Nil, nil, ErrClosed
	}
	id := uuid.New()
	s := &subscriber[E]{ch: make(chan E, max(buffer, 1))}
	b.subs[id] = s
	return id, s.ch, nil
}

// Publish delivers ev to all subscribers without blocking.
func (b *Bus[E]) Publish(ev E) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.published.Add(1)
	for _, s := range b.subs {
		select {
		case s.ch <- ev:
			s.sent.Add(1)
		default:
			s.dropped.Add(1)
		}
	}
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus[E]) Unsubscribe(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.subs[id]
	if !ok {
		return ErrNotFound
	}
	delete(b.subs, id)
	close(s.ch)
	return nil
}

// Stats returns the delivery counters of a subscriber.
func (b *Bus[E]) Stats(id uuid.UUID) (Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.subs[id]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return Stats{Sent: s.sent.Load(), Dropped: s.dropped.Load()}, nil
}

// Published returns the number of events published so far.
func (b *Bus[E]) Published() uint64 { return b.published.Load() }

// Len returns the number of subscribers.
func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus[E]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}
