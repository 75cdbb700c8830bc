package events

import (
	"sync"

	"github.com/aretw0/roguepath/pkg/domain"
)

// RingBuffer keeps the most recent events, oldest first.
type RingBuffer struct {
	mu     sync.RWMutex
	size   int
	events []domain.Event
	index  int
	full   bool
}

// NewRingBuffer creates a buffer holding up to size events. size below 1 is treated as 1.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{
		size:   size,
		events: make([]domain.Event, size),
	}
}

func (rb *RingBuffer) Add(e domain.Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.events[rb.index] = e
	rb.index = (rb.index + 1) % rb.size
	if rb.index == 0 {
		rb.full = true
	}
}

func (rb *RingBuffer) Snapshot() []domain.Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		return append([]domain.Event{}, rb.events[:rb.index]...)
	}

	out := make([]domain.Event, 0, rb.size)
	out = append(out, rb.events[rb.index:]...)
	out = append(out, rb.events[:rb.index]...)
	return out
}
