package pathstore_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/codec"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/pathgen"
	"github.com/aretw0/roguepath/pkg/pathstore"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	saves int
	mu    sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, owner string, doc []byte) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Store.Save(ctx, owner, doc)
}

// FailingStore fails every save once armed.
type FailingStore struct {
	*memory.Store
	fail bool
}

func (s *FailingStore) Save(ctx context.Context, owner string, doc []byte) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, owner, doc)
}

// GatedStore parks every save until released once armed.
type GatedStore struct {
	*memory.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *GatedStore) Save(ctx context.Context, owner string, doc []byte) error {
	if s.armed.Load() {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.Store.Save(ctx, owner, doc)
}

var params = domain.GenParams{NodeBudget: 6, MaxBranches: 2, MaxHeight: 3, RoomPool: []string{"hall"}}

func newStore(backend ports.GraphStore, opts ...pathstore.Option) *pathstore.Store {
	cat := memory.MustCatalog(domain.RoomDefinition{ID: "hall", MaxFloor: 10})
	return pathstore.New(backend, pathgen.New(cat, pathgen.WithSeed(3)), codec.New(cat), opts...)
}

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Notify(ctx context.Context, evt domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestStore_SingleActivePath(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newStore(memory.NewStore(), pathstore.WithNotifier(rec))

	g, err := s.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)
	assert.Equal(t, "p1", g.PathID)

	_, err = s.Create(ctx, "g1", "p2", params)
	assert.ErrorIs(t, err, domain.ErrPathActive)

	active, err := s.Active(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, s.Delete(ctx, "g1"))
	_, err = s.Get(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)

	_, err = s.Create(ctx, "g1", "p2", params)
	assert.NoError(t, err)
	assert.Equal(t, []domain.EventType{domain.EventPathCreated, domain.EventPathCreated}, rec.types())
}

func TestStore_CreateRejectsInvalidParams(t *testing.T) {
	s := newStore(memory.NewStore())
	_, err := s.Create(context.Background(), "g1", "p1", domain.GenParams{NodeBudget: 0, MaxHeight: 1})
	var gce *domain.GenerationConstraintError
	require.ErrorAs(t, err, &gce)

	active, err := s.Active(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestStore_GetLoadsFromBackend(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	first := newStore(backend)
	created, err := first.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)

	second := newStore(backend)
	loaded, err := second.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, created.RunID, loaded.RunID)
	assert.ElementsMatch(t, created.Nodes(), loaded.Nodes())
}

func TestStore_UpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	backend := &FailingStore{Store: memory.NewStore()}
	s := newStore(backend)
	_, err := s.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)

	g, err := s.Update(ctx, "g1", func(g *domain.PathGraph) error { return g.MarkCompleted(0) })
	require.NoError(t, err)
	n, _ := g.Node(0)
	assert.True(t, n.Completed)

	backend.fail = true
	_, err = s.Update(ctx, "g1", func(g *domain.PathGraph) error { return g.MarkCompleted(1) })
	require.Error(t, err)

	g, err = s.Get(ctx, "g1")
	require.NoError(t, err)
	n, _ = g.Node(1)
	assert.False(t, n.Completed, "failed save leaves the cached graph untouched")

	_, err = s.Update(ctx, "g1", func(g *domain.PathGraph) error { return errors.New("nope") })
	assert.EqualError(t, err, "nope")
}

func TestStore_GetDoesNotWaitForSave(t *testing.T) {
	ctx := context.Background()
	backend := &GatedStore{Store: memory.NewStore(), entered: make(chan struct{}), release: make(chan struct{})}
	s := newStore(backend)
	_, err := s.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)

	backend.armed.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := s.Update(ctx, "g1", func(g *domain.PathGraph) error { return g.MarkCompleted(0) })
		done <- err
	}()
	<-backend.entered

	g, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	n, _ := g.Node(0)
	assert.False(t, n.Completed, "readers see the last saved graph")

	close(backend.release)
	require.NoError(t, <-done)
	g, err = s.Get(ctx, "g1")
	require.NoError(t, err)
	n, _ = g.Node(0)
	assert.True(t, n.Completed)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(memory.NewStore())
	g, err := s.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)
	require.NoError(t, g.MarkCompleted(0))

	fresh, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	n, _ := fresh.Node(0)
	assert.False(t, n.Completed)
}

func TestStore_InvalidDocumentIsReported(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	corrupt := []byte(`{"type":"roguepath.graph","version":1,"nodes":[{"id":1,"level":1,"parent_ids":[9]}]}`)
	require.NoError(t, backend.Save(ctx, "g1", corrupt))

	rec := &recorder{}
	s := newStore(backend, pathstore.WithNotifier(rec))
	_, err := s.Get(ctx, "g1")
	var gie *domain.GraphIntegrityError
	require.ErrorAs(t, err, &gie)
	assert.Equal(t, corrupt, gie.Document)
	assert.Equal(t, []domain.EventType{domain.EventGraphInvalid}, rec.types())

	kept, err := backend.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, corrupt, kept, "corrupt document is not discarded")

	require.NoError(t, s.Delete(ctx, "g1"))
	_, err = s.Create(ctx, "g1", "p1", params)
	assert.NoError(t, err)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(memory.NewStore())
	g, err := s.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)

	fresh, err := s.Reset(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "p1", fresh.PathID)
	assert.Equal(t, g.Params, fresh.Params)
	assert.NotEqual(t, g.RunID, fresh.RunID)
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	backend := &SlowStore{Store: memory.NewStore()}
	s := newStore(backend)
	g, err := s.Create(ctx, "g1", "p1", params)
	require.NoError(t, err)
	ids := g.IDs()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.NodeID) {
			defer wg.Done()
			_, err := s.Update(ctx, "g1", func(g *domain.PathGraph) error { return g.MarkCompleted(id) })
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	final, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	for _, n := range final.Nodes() {
		assert.True(t, n.Completed, "update to node %d was lost", n.ID)
	}
	assert.Equal(t, len(ids)+1, backend.saves)
}
