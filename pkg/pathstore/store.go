package pathstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/codec"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/pathgen"
	"github.com/aretw0/roguepath/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Store orchestrates graph access per owning group.
// It uses reference counting to garbage collect unused locks.
type Store struct {
	backend ports.GraphStore
	gen     *pathgen.Generator
	codec   *codec.Codec

	mu    sync.Mutex            // Global lock for the lock map
	locks map[string]*lockEntry // Map of active locks

	cmu   sync.RWMutex
	cache map[string]*domain.PathGraph

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	notifier ports.Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures the Store.
type Option func(*Store)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Store) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithNotifier sets where graph lifecycle events are sent.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store persisting through backend.
func New(backend ports.GraphStore, gen *pathgen.Generator, c *codec.Codec, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		gen:      gen,
		codec:    c,
		locks:    make(map[string]*lockEntry),
		cache:    make(map[string]*domain.PathGraph),
		lockTTL:  30 * time.Second,
		notifier: ports.MultiNotifier(nil),
		logger:   logging.NewNop(),
		tracer:   otel.Tracer("github.com/aretw0/roguepath/pkg/pathstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(owner) after unlocking.
func (s *Store) acquire(owner string) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[owner]
	if !exists {
		entry = &lockEntry{}
		s.locks[owner] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (s *Store) release(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[owner]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, owner)
	}
}

// WithLock executes fn while holding the lock for the owner.
func (s *Store) WithLock(ctx context.Context, owner string, fn func(context.Context) error) error {
	entry := s.acquire(owner)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(owner)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "path:"+owner, s.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"group_id", owner,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create generates and binds a new path to owner. It fails with
// domain.ErrPathActive when the owner already has one.
func (s *Store) Create(ctx context.Context, owner, pathID string, params domain.GenParams) (*domain.PathGraph, error) {
	ctx, span := s.tracer.Start(ctx, "pathstore.Create", trace.WithAttributes(
		attribute.String("group_id", owner),
		attribute.String("path_id", pathID),
	))
	defer span.End()

	var out *domain.PathGraph
	err := s.WithLock(ctx, owner, func(ctx context.Context) error {
		active, err := s.active(ctx, owner)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrPathActive
		}
		g, err := s.gen.Generate(ctx, pathID, params)
		if err != nil {
			return err
		}
		if err := s.commit(ctx, owner, g); err != nil {
			return err
		}
		out = g.Clone()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.notify(ctx, domain.EventPathCreated, owner, out, "")
	s.logger.Info("Path created", "group_id", owner, "path_id", pathID, "run_id", out.RunID, "nodes", out.Len())
	return out, nil
}

// Get returns a copy of the owner's graph, loading it from the backend on a cache miss.
// A document that fails to decode is left in place and reported as *domain.GraphIntegrityError.
// Cached reads never wait for a save in progress; they see the last saved graph.
func (s *Store) Get(ctx context.Context, owner string) (*domain.PathGraph, error) {
	s.cmu.RLock()
	g, ok := s.cache[owner]
	s.cmu.RUnlock()
	if ok {
		return g.Clone(), nil
	}

	var out *domain.PathGraph
	err := s.WithLock(ctx, owner, func(ctx context.Context) error {
		g, err := s.current(ctx, owner)
		if err != nil {
			return err
		}
		out = g.Clone()
		return nil
	})
	return out, err
}

// Update applies fn to a copy of the owner's graph and persists the result.
// The cached graph only changes once the new document is saved.
func (s *Store) Update(ctx context.Context, owner string, fn func(*domain.PathGraph) error) (*domain.PathGraph, error) {
	var out *domain.PathGraph
	err := s.WithLock(ctx, owner, func(ctx context.Context) error {
		g, err := s.current(ctx, owner)
		if err != nil {
			return err
		}
		next := g.Clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := s.commit(ctx, owner, next); err != nil {
			return err
		}
		out = next.Clone()
		return nil
	})
	return out, err
}

// Delete unbinds the owner's path and removes its document.
func (s *Store) Delete(ctx context.Context, owner string) error {
	return s.WithLock(ctx, owner, func(ctx context.Context) error {
		if err := s.backend.Delete(ctx, owner); err != nil {
			return fmt.Errorf("delete graph: %w", err)
		}
		s.cmu.Lock()
		delete(s.cache, owner)
		s.cmu.Unlock()
		return nil
	})
}

// Reset replaces the owner's path with a fresh generation from the same
// parameters and path id, under a new run id.
func (s *Store) Reset(ctx context.Context, owner string) (*domain.PathGraph, error) {
	var out *domain.PathGraph
	err := s.WithLock(ctx, owner, func(ctx context.Context) error {
		g, err := s.current(ctx, owner)
		if err != nil {
			return err
		}
		fresh, err := s.gen.Generate(ctx, g.PathID, g.Params)
		if err != nil {
			return err
		}
		if err := s.commit(ctx, owner, fresh); err != nil {
			return err
		}
		out = fresh.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, domain.EventPathCreated, owner, out, "reset")
	return out, nil
}

// Active reports whether the owner has a stored path.
func (s *Store) Active(ctx context.Context, owner string) (bool, error) {
	var active bool
	err := s.WithLock(ctx, owner, func(ctx context.Context) error {
		var err error
		active, err = s.active(ctx, owner)
		return err
	})
	return active, err
}

// List delegates to the backend.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.backend.List(ctx)
}

// Backend returns the underlying graph store.
func (s *Store) Backend() ports.GraphStore {
	return s.backend
}

func (s *Store) active(ctx context.Context, owner string) (bool, error) {
	s.cmu.RLock()
	_, cached := s.cache[owner]
	s.cmu.RUnlock()
	if cached {
		return true, nil
	}
	_, err := s.backend.Load(ctx, owner)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrGraphNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check path existence: %w", err)
	}
}

// current returns the cached graph, decoding it from the backend on a miss. Callers hold the owner lock.
func (s *Store) current(ctx context.Context, owner string) (*domain.PathGraph, error) {
	s.cmu.RLock()
	g, ok := s.cache[owner]
	s.cmu.RUnlock()
	if ok {
		return g, nil
	}

	doc, err := s.backend.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	g, err = s.codec.Decode(doc)
	if err != nil {
		var gie *domain.GraphIntegrityError
		if errors.As(err, &gie) {
			s.logger.Error("Stored path graph is invalid", "group_id", owner, "reason", gie.Reason, "err", err)
			s.notify(ctx, domain.EventGraphInvalid, owner, nil, gie.Reason)
		}
		return nil, err
	}

	s.cmu.Lock()
	s.cache[owner] = g
	s.cmu.Unlock()
	return g, nil
}

// commit encodes g, verifies the document decodes, saves it and swaps the cache.
func (s *Store) commit(ctx context.Context, owner string, g *domain.PathGraph) error {
	doc, err := s.codec.Encode(g)
	if err != nil {
		return err
	}
	if _, err := s.codec.Decode(doc); err != nil {
		return fmt.Errorf("verify encoded graph: %w", err)
	}
	if err := s.backend.Save(ctx, owner, doc); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	s.cmu.Lock()
	s.cache[owner] = g
	s.cmu.Unlock()
	return nil
}

func (s *Store) notify(ctx context.Context, t domain.EventType, owner string, g *domain.PathGraph, reason string) {
	evt := domain.NewEvent(t, owner)
	evt.Reason = reason
	if g != nil {
		evt.PathID = g.PathID
		evt.RunID = g.RunID
	}
	s.notifier.Notify(ctx, evt)
}
