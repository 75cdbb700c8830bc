// Package events is the in-process event bus: a ring buffer of recent
// progress events plus a fan-out to live subscribers.
package events

import (
	"context"
	"sync"

	"github.com/aretw0/roguepath/pkg/domain"
)

// Subscriber receives events. Its buffer absorbs short bursts.
type Subscriber chan domain.Event

const subscriberBuffer = 64

// Bus implements ports.Notifier.
type Bus struct {
	buffer *RingBuffer

	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
	closed      bool
}

// NewBus creates a bus remembering the last size events.
func NewBus(size int) *Bus {
	return &Bus{
		buffer:      NewRingBuffer(size),
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Notify records evt and delivers it to every subscriber.
// A subscriber whose buffer is full misses the event.
func (b *Bus) Notify(ctx context.Context, evt domain.Event) {
	b.buffer.Add(evt)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- evt:
		default:
		}
	}
}

// Subscribe registers a new subscriber. On a closed bus the returned channel is already closed.
func (b *Bus) Subscribe() Subscriber {
	ch := make(Subscriber, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes sub and closes its channel. Unknown subscribers are ignored.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Recent returns up to the last n events, oldest first. n <= 0 returns all.
// A non-empty group keeps only that group's events.
func (b *Bus) Recent(n int, group string) []domain.Event {
	all := b.buffer.Snapshot()
	if group != "" {
		filtered := all[:0]
		for _, e := range all {
			if e.GroupID == group {
				filtered = append(filtered, e)
			}
		}
		all = filtered
	}
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Close closes every subscriber channel and refuses new subscribers.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		close(sub)
		delete(b.subscribers, sub)
	}
	b.closed = true
}
