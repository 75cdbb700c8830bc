package roguepath

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/internal/random"
	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/codec"
	"github.com/aretw0/roguepath/pkg/coordinator"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/party"
	"github.com/aretw0/roguepath/pkg/pathgen"
	"github.com/aretw0/roguepath/pkg/pathstore"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/aretw0/roguepath/pkg/room"
	"github.com/aretw0/roguepath/pkg/tick"
)

// Host is the context object tying the generator, the path store, the group
// registry and the run coordinator to one heartbeat loop.
//
// Every method is safe for concurrent use: calls are serialized onto the
// loop's logical thread, the same thread run timers and spawners fire on.
type Host struct {
	loop    *tick.Loop
	catalog ports.RoomCatalog
	gen     *pathgen.Generator
	codec   *codec.Codec
	parties *party.Registry
	paths   *pathstore.Store
	coord   *coordinator.Coordinator
	seed    uint64
	logger  *slog.Logger
}

type config struct {
	store         ports.GraphStore
	locker        ports.DistributedLocker
	lockTTL       time.Duration
	notifiers     ports.MultiNotifier
	logger        *slog.Logger
	seed          *uint64
	loop          *tick.Loop
	scorer        *room.Scorer
	timerInterval time.Duration
	spawnInterval time.Duration
	maxAttempts   int
	deps          room.Deps
	groupIDs      func() string
}

// Option defines a functional option for configuring the Host.
type Option func(*config)

// WithStore sets the graph document backend (default: in memory).
func WithStore(s ports.GraphStore) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithLocker enables cross-instance locking of graph documents.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(c *config) {
		c.locker = l
		c.lockTTL = ttl
	}
}

// WithNotifier adds a receiver of progress events. It may be given more than once.
func WithNotifier(n ports.Notifier) Option {
	return func(c *config) {
		c.notifiers = append(c.notifiers, n)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSeed makes generation and document repair deterministic.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = &seed
	}
}

// WithLoop drives the host from an existing heartbeat loop.
func WithLoop(l *tick.Loop) Option {
	return func(c *config) {
		c.loop = l
	}
}

// WithScorer sets how run outcomes are scored.
func WithScorer(s room.Scorer) Option {
	return func(c *config) {
		c.scorer = &s
	}
}

// WithIntervals sets the run timer and spawn cadences.
func WithIntervals(timer, spawn time.Duration) Option {
	return func(c *config) {
		c.timerInterval = timer
		c.spawnInterval = spawn
	}
}

// WithMaxAttempts bounds failed runs per node. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithPlacer sets the structure placer. Without one, rooms count as placed immediately.
func WithPlacer(p ports.StructurePlacer) Option {
	return func(c *config) {
		c.deps.Placer = p
	}
}

// WithSpawner sets the actor spawner.
func WithSpawner(s ports.ActorSpawner) Option {
	return func(c *config) {
		c.deps.Spawner = s
	}
}

// WithOriginResolver sets how environments map to placement origins.
func WithOriginResolver(r ports.OriginResolver) Option {
	return func(c *config) {
		c.deps.Origins = r
	}
}

// WithGroupIDs overrides the group id source.
func WithGroupIDs(fn func() string) Option {
	return func(c *config) {
		c.groupIDs = fn
	}
}

// New wires a Host around a room catalog.
func New(catalog ports.RoomCatalog, opts ...Option) (*Host, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.store == nil {
		cfg.store = memory.NewStore()
	}
	if cfg.loop == nil {
		cfg.loop = tick.New(tick.WithLogger(cfg.logger))
	}

	seed, err := random.ResolveSeed(cfg.seed, random.NewSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed generator: %w", err)
	}

	h := &Host{
		loop:    cfg.loop,
		catalog: catalog,
		seed:    seed,
		logger:  cfg.logger,
	}
	h.gen = pathgen.New(catalog, pathgen.WithSeed(seed), pathgen.WithLogger(cfg.logger))
	h.codec = codec.New(catalog, codec.WithRand(random.New(seed+1)), codec.WithLogger(cfg.logger))

	partyOpts := []party.Option{party.WithLogger(cfg.logger)}
	if cfg.groupIDs != nil {
		partyOpts = append(partyOpts, party.WithIDs(cfg.groupIDs))
	}
	h.parties = party.NewRegistry(partyOpts...)

	storeOpts := []pathstore.Option{
		pathstore.WithNotifier(cfg.notifiers),
		pathstore.WithLogger(cfg.logger),
	}
	if cfg.locker != nil {
		storeOpts = append(storeOpts, pathstore.WithLocker(cfg.locker, cfg.lockTTL))
	}
	h.paths = pathstore.New(cfg.store, h.gen, h.codec, storeOpts...)

	cfg.deps.Heartbeat = h.loop
	coordOpts := []coordinator.Option{
		coordinator.WithNotifier(cfg.notifiers),
		coordinator.WithMaxAttempts(cfg.maxAttempts),
		coordinator.WithLogger(cfg.logger),
	}
	if cfg.scorer != nil {
		coordOpts = append(coordOpts, coordinator.WithScorer(*cfg.scorer))
	}
	if cfg.timerInterval > 0 || cfg.spawnInterval > 0 {
		coordOpts = append(coordOpts, coordinator.WithIntervals(cfg.timerInterval, cfg.spawnInterval))
	}
	h.coord = coordinator.New(h.paths, h.parties, catalog, cfg.deps, coordOpts...)

	// Leave runs inside a loop call, so the hook is already on the logical thread.
	h.parties.OnDisband(func(ctx context.Context, groupID string) {
		if err := h.coord.Disband(ctx, groupID); err != nil {
			h.logger.Error("Failed to disband group", "group_id", groupID, "err", err)
		}
	})

	h.logger.Debug("Host ready", "seed", seed)
	return h, nil
}

// Run drives the heartbeat from the wall clock until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	return h.loop.Run(ctx)
}

// Wait blocks until path updates queued by finished runs have been saved.
func (h *Host) Wait() {
	h.coord.Wait()
}

// Loop returns the heartbeat loop.
func (h *Host) Loop() *tick.Loop { return h.loop }

// Seed returns the generator seed.
func (h *Host) Seed() uint64 { return h.seed }

// Codec returns the document codec.
func (h *Host) Codec() *codec.Codec { return h.codec }

// Catalog returns the room catalog.
func (h *Host) Catalog() ports.RoomCatalog { return h.catalog }

func (h *Host) call(ctx context.Context, fn func() error) error {
	return h.loop.Call(ctx, fn)
}

// CreateGroup forms a group led by leader and returns its id.
func (h *Host) CreateGroup(ctx context.Context, leader string) (string, error) {
	var id string
	err := h.call(ctx, func() (err error) {
		id, err = h.parties.Create(leader)
		return err
	})
	return id, err
}

// JoinGroup adds actor to a group.
func (h *Host) JoinGroup(ctx context.Context, groupID, actor string) error {
	return h.call(ctx, func() error {
		return h.parties.Join(groupID, actor)
	})
}

// LeaveGroup removes actor from its group. The last member leaving disbands
// the group, ending its run and deleting its path.
func (h *Host) LeaveGroup(ctx context.Context, actor string) (disbanded bool, err error) {
	err = h.call(ctx, func() error {
		groupID, gone, err := h.parties.Leave(ctx, actor)
		if err != nil {
			return err
		}
		disbanded = gone
		if !gone {
			h.coord.MemberLeft(groupID, actor)
		}
		return nil
	})
	return disbanded, err
}

// PromoteLeader hands group leadership to a member.
func (h *Host) PromoteLeader(ctx context.Context, groupID, actor string) error {
	return h.call(ctx, func() error {
		return h.parties.Promote(groupID, actor)
	})
}

// Group describes a group's membership.
type Group struct {
	ID      string   `json:"id"`
	Leader  string   `json:"leader"`
	Members []string `json:"members"`
}

// Group returns a group's membership.
func (h *Host) Group(ctx context.Context, groupID string) (Group, error) {
	out := Group{ID: groupID}
	err := h.call(ctx, func() (err error) {
		if out.Members, err = h.parties.Members(groupID); err != nil {
			return err
		}
		out.Leader, err = h.parties.Leader(groupID)
		return err
	})
	return out, err
}

// Groups lists every group id.
func (h *Host) Groups() []string {
	return h.parties.List()
}

// GeneratePath generates and binds a path to the group.
func (h *Host) GeneratePath(ctx context.Context, groupID, pathID string, params domain.GenParams) (*domain.PathGraph, error) {
	var g *domain.PathGraph
	err := h.call(ctx, func() (err error) {
		g, err = h.coord.CreatePath(ctx, groupID, pathID, params)
		return err
	})
	return g, err
}

// ResetPath regenerates the group's path with its original parameters.
func (h *Host) ResetPath(ctx context.Context, groupID string) (*domain.PathGraph, error) {
	var g *domain.PathGraph
	err := h.call(ctx, func() (err error) {
		g, err = h.coord.ResetPath(ctx, groupID)
		return err
	})
	return g, err
}

// Path returns a copy of the group's path.
func (h *Host) Path(ctx context.Context, groupID string) (*domain.PathGraph, error) {
	var g *domain.PathGraph
	err := h.call(ctx, func() (err error) {
		g, err = h.paths.Get(ctx, groupID)
		return err
	})
	return g, err
}

// Document returns the group's path encoded as a document.
func (h *Host) Document(ctx context.Context, groupID string) ([]byte, error) {
	g, err := h.Path(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return h.codec.Encode(g)
}

// SelectNode starts a run of the node's room for the group.
func (h *Host) SelectNode(ctx context.Context, groupID string, node domain.NodeID) (room.Snapshot, error) {
	var snap room.Snapshot
	err := h.call(ctx, func() error {
		run, err := h.coord.SelectNode(ctx, groupID, node)
		if run != nil {
			snap = run.Snapshot()
		}
		return err
	})
	return snap, err
}

// Available lists the nodes the group may select next.
func (h *Host) Available(ctx context.Context, groupID string) ([]domain.NodeID, error) {
	var ids []domain.NodeID
	err := h.call(ctx, func() (err error) {
		ids, err = h.coord.Available(ctx, groupID)
		return err
	})
	return ids, err
}

// Progress returns the group's position on its path.
func (h *Host) Progress(ctx context.Context, groupID string) (coordinator.Progress, error) {
	var p coordinator.Progress
	err := h.call(ctx, func() (err error) {
		p, err = h.coord.Progress(groupID)
		return err
	})
	return p, err
}

// Pause freezes the group's run.
func (h *Host) Pause(ctx context.Context, groupID string) error {
	return h.call(ctx, func() error { return h.coord.Pause(ctx, groupID) })
}

// Resume continues the group's paused run.
func (h *Host) Resume(ctx context.Context, groupID string) error {
	return h.call(ctx, func() error { return h.coord.Resume(ctx, groupID) })
}

// Stop aborts the group's run.
func (h *Host) Stop(ctx context.Context, groupID string) error {
	return h.call(ctx, func() error { return h.coord.Stop(ctx, groupID) })
}

// ActorDefeated reports the death of a spawned actor. It returns false when no run owns it.
func (h *Host) ActorDefeated(ctx context.Context, actorID string) (bool, error) {
	var owned bool
	err := h.call(ctx, func() error {
		owned = h.coord.ActorDefeated(actorID)
		return nil
	})
	return owned, err
}

// MemberDefeated reports that a group member went down in its run.
func (h *Host) MemberDefeated(ctx context.Context, actor string) error {
	return h.call(ctx, func() error { return h.coord.MemberDefeated(actor) })
}
