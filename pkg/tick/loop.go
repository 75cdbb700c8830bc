// Package tick provides the cooperative heartbeat the room runs execute on.
//
// A Loop is the single logical thread of the engine: scheduled tasks, posted
// callbacks and Call functions never run concurrently with each other. Time is
// virtual; Run advances it from a wall-clock ticker and tests advance it by hand.
package tick

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/roguepath/internal/logging"
)

type task struct {
	id        uint64
	interval  time.Duration
	next      time.Duration
	fn        func()
	cancelled bool
}

// Loop implements ports.Heartbeat.
type Loop struct {
	sem chan struct{} // held by whoever runs on the logical thread

	mu     sync.Mutex // guards the fields below
	now    time.Duration
	tasks  []*task
	posted []func()
	nextID uint64

	wake       chan struct{}
	resolution time.Duration
	logger     *slog.Logger
}

// Option configures the Loop.
type Option func(*Loop)

// WithResolution sets the wall-clock step used by Run.
func WithResolution(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.resolution = d
		}
	}
}

// WithLogger configures a logger for the Loop.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a stopped Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		sem:        make(chan struct{}, 1),
		wake:       make(chan struct{}, 1),
		resolution: 50 * time.Millisecond,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Every schedules fn every interval, first firing one interval from now.
// Tasks due at the same instant fire in registration order.
func (l *Loop) Every(interval time.Duration, fn func()) (cancel func()) {
	if interval <= 0 {
		interval = time.Second
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	t := &task{id: l.nextID, interval: interval, next: l.now + interval, fn: fn}
	l.tasks = append(l.tasks, t)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if t.cancelled {
			return
		}
		t.cancelled = true
		for i, other := range l.tasks {
			if other == t {
				l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
				break
			}
		}
	}
}

// Post queues fn to run once on the logical thread. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the logical thread and returns its error.
// It must not be called from a task or posted callback.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer l.release()

	err := fn()
	l.drain()
	return err
}

// Drain runs every posted callback.
func (l *Loop) Drain() {
	l.sem <- struct{}{}
	defer l.release()
	l.drain()
}

// Advance moves virtual time forward by d, firing due tasks in order.
// Posted callbacks run before and after each firing instant.
func (l *Loop) Advance(d time.Duration) {
	l.sem <- struct{}{}
	defer l.release()
	l.advance(d)
}

// Now returns the current virtual time.
func (l *Loop) Now() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Pending returns the number of scheduled tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Run drives the loop from a wall-clock ticker until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.resolution)
	defer ticker.Stop()

	l.logger.Debug("Heartbeat started", "resolution", l.resolution)
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("Heartbeat stopped")
			return ctx.Err()
		case <-l.wake:
			l.Drain()
		case <-ticker.C:
			l.Advance(l.resolution)
		}
	}
}

func (l *Loop) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) release() {
	<-l.sem
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.posted
		l.posted = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

func (l *Loop) advance(d time.Duration) {
	l.drain()

	l.mu.Lock()
	target := l.now + d
	l.mu.Unlock()

	for {
		l.mu.Lock()
		at, ok := l.earliest(target)
		if !ok {
			l.now = target
			l.mu.Unlock()
			return
		}
		l.now = at
		due := make([]*task, 0, len(l.tasks))
		for _, t := range l.tasks {
			if t.next == at {
				due = append(due, t)
			}
		}
		l.mu.Unlock()

		for _, t := range due {
			l.mu.Lock()
			live := !t.cancelled
			if live {
				t.next += t.interval
			}
			l.mu.Unlock()
			if live {
				t.fn()
			}
		}
		l.drain()
	}
}

// earliest returns the first due instant not after target. Callers hold mu.
func (l *Loop) earliest(target time.Duration) (time.Duration, bool) {
	var (
		at    time.Duration
		found bool
	)
	for _, t := range l.tasks {
		if t.next <= target && (!found || t.next < at) {
			at = t.next
			found = true
		}
	}
	return at, found
}
