package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/party"
	"github.com/aretw0/roguepath/pkg/pathstore"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/aretw0/roguepath/pkg/room"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// errPathReplaced stops a queued update from landing on a regenerated path.
var errPathReplaced = errors.New("path replaced before the update was saved")

// progress is a group's position on its path.
type progress struct {
	current  *domain.NodeID
	cleared  bool
	attempts int
	failed   bool
	last     *domain.Outcome
	run      *room.Run
}

// Progress is a read-only view of a group's position.
type Progress struct {
	GroupID  string          `json:"group_id"`
	Current  *domain.NodeID  `json:"current,omitempty"`
	Cleared  bool            `json:"cleared"`
	Attempts int             `json:"attempts"`
	Failed   bool            `json:"failed"`
	Last     *domain.Outcome `json:"last_outcome,omitempty"`
	Run      *room.Snapshot  `json:"run,omitempty"`
}

// Coordinator binds groups, their paths and their room runs.
type Coordinator struct {
	paths   *pathstore.Store
	parties *party.Registry
	catalog ports.RoomCatalog
	deps    room.Deps

	notifier      ports.Notifier
	scorer        room.Scorer
	timerInterval time.Duration
	spawnInterval time.Duration
	maxAttempts   int
	logger        *slog.Logger
	tracer        trace.Tracer

	groups  map[string]*progress
	workers sync.WaitGroup
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithNotifier sets where progress events are sent.
func WithNotifier(n ports.Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithScorer sets the scorer every run settles with.
func WithScorer(s room.Scorer) Option {
	return func(c *Coordinator) {
		c.scorer = s
	}
}

// WithIntervals sets the timer and spawn cadences of every run.
func WithIntervals(timer, spawn time.Duration) Option {
	return func(c *Coordinator) {
		c.timerInterval = timer
		c.spawnInterval = spawn
	}
}

// WithMaxAttempts bounds how many failed runs a node allows. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) {
		c.maxAttempts = n
	}
}

// WithLogger configures a logger for the Coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator. Disbanded groups lose their path and any run in progress.
func New(paths *pathstore.Store, parties *party.Registry, catalog ports.RoomCatalog, deps room.Deps, opts ...Option) *Coordinator {
	c := &Coordinator{
		paths:    paths,
		parties:  parties,
		catalog:  catalog,
		deps:     deps,
		notifier: ports.MultiNotifier(nil),
		scorer:   room.DefaultScorer(),
		logger:   logging.NewNop(),
		tracer:   otel.Tracer("github.com/aretw0/roguepath/pkg/coordinator"),
		groups:   make(map[string]*progress),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) progressOf(groupID string) *progress {
	pr, ok := c.groups[groupID]
	if !ok {
		pr = &progress{}
		c.groups[groupID] = pr
	}
	return pr
}

// CreatePath generates the group's path.
func (c *Coordinator) CreatePath(ctx context.Context, groupID, pathID string, params domain.GenParams) (*domain.PathGraph, error) {
	if !c.parties.Exists(groupID) {
		return nil, domain.ErrGroupNotFound
	}
	g, err := c.paths.Create(ctx, groupID, pathID, params)
	if err != nil {
		return nil, err
	}
	c.groups[groupID] = &progress{}
	return g, nil
}

// ResetPath aborts any run and regenerates the group's path from scratch.
func (c *Coordinator) ResetPath(ctx context.Context, groupID string) (*domain.PathGraph, error) {
	if pr, ok := c.groups[groupID]; ok && pr.run != nil {
		pr.run.End()
	}
	g, err := c.paths.Reset(ctx, groupID)
	if err != nil {
		return nil, err
	}
	c.groups[groupID] = &progress{}
	return g, nil
}

// SelectNode starts a run for node. The node must be the root on a fresh path,
// the current node after a failed run, or a child of the current node once it
// has been cleared. Moving on marks the current node completed.
func (c *Coordinator) SelectNode(ctx context.Context, groupID string, node domain.NodeID) (*room.Run, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.SelectNode", trace.WithAttributes(
		attribute.String("group_id", groupID),
		attribute.Int("node_id", int(node)),
	))
	defer span.End()

	run, err := c.selectNode(ctx, groupID, node)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("Node selection rejected", "group_id", groupID, "node_id", node, "err", err)
	}
	return run, err
}

func (c *Coordinator) selectNode(ctx context.Context, groupID string, node domain.NodeID) (*room.Run, error) {
	members, err := c.parties.Members(groupID)
	if err != nil {
		return nil, err
	}
	pr := c.progressOf(groupID)
	if pr.run != nil && pr.run.Status().Active() {
		return nil, domain.ErrRunInProgress
	}

	g, err := c.paths.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	n, ok := g.Node(node)
	if !ok {
		return nil, c.violation(groupID, pr, node, "unknown node")
	}
	if err := c.checkTraversal(g, groupID, pr, n); err != nil {
		return nil, err
	}

	def, err := c.resolveRoom(ctx, g, groupID, n)
	if err != nil {
		return nil, err
	}

	moving := pr.current == nil || *pr.current != node
	if pr.current != nil && moving {
		prev := *pr.current
		c.complete(ctx, groupID, g.RunID, prev, func(err error) {
			if err != nil {
				c.logger.Error("Failed to complete node", "group_id", groupID, "node_id", prev, "err", err)
			}
		})
	}
	if moving {
		pr.attempts = 0
	}
	pr.current = domain.NodeRef(node)
	pr.cleared = false
	pr.last = nil

	endCtx := context.WithoutCancel(ctx)
	run := room.NewRun(def, groupID, members, c.deps,
		room.WithEnvironment(g.Params.Environment),
		room.WithIntervals(c.timerInterval, c.spawnInterval),
		room.WithScorer(c.scorer),
		room.WithLogger(c.logger),
		room.OnEnd(func(out domain.Outcome) { c.settle(endCtx, groupID, g.PathID, g.RunID, node, out) }),
	)
	pr.run = run

	evt := c.event(domain.EventNodeSelected, groupID, g.PathID, node)
	evt.RoomID = def.ID
	c.notifier.Notify(ctx, evt)

	evt = c.event(domain.EventRunStarted, groupID, g.PathID, node)
	evt.RunID = run.ID()
	evt.RoomID = def.ID
	c.notifier.Notify(ctx, evt)

	// A failed start has already settled through OnEnd.
	if err := run.Start(ctx); err != nil {
		return run, err
	}

	c.logger.Info("Node selected", "group_id", groupID, "path_id", g.PathID, "node_id", node, "room_id", def.ID, "run_id", run.ID())
	return run, nil
}

func (c *Coordinator) checkTraversal(g *domain.PathGraph, groupID string, pr *progress, n domain.Node) error {
	if pr.failed {
		return c.violation(groupID, pr, n.ID, "path failed, reset required")
	}
	if n.Completed {
		return c.violation(groupID, pr, n.ID, "node already completed")
	}
	if pr.current == nil {
		if root, _ := g.Root(); n.ID != root {
			return c.violation(groupID, pr, n.ID, "first selection must be the root")
		}
		return nil
	}
	if *pr.current == n.ID {
		if pr.cleared {
			return c.violation(groupID, pr, n.ID, "node already cleared")
		}
		return nil
	}
	if !pr.cleared {
		return c.violation(groupID, pr, n.ID, "current node not cleared")
	}
	if !g.HasEdge(*pr.current, n.ID) {
		return c.violation(groupID, pr, n.ID, "not a child of the current node")
	}
	return nil
}

func (c *Coordinator) resolveRoom(ctx context.Context, g *domain.PathGraph, groupID string, n domain.Node) (domain.RoomDefinition, error) {
	var def domain.RoomDefinition
	ok := false
	if n.HasRoom() && c.catalog != nil {
		def, ok = c.catalog.Room(n.RoomID)
	}
	if ok {
		return def, nil
	}
	evt := c.event(domain.EventRoomUnresolved, groupID, g.PathID, n.ID)
	evt.RoomID = n.RoomID
	c.notifier.Notify(ctx, evt)
	c.logger.Warn("Refusing node without a room", "group_id", groupID, "node_id", n.ID, "room_id", n.RoomID)
	return def, &domain.UnresolvedRoomError{NodeID: n.ID, Level: n.Level, RoomID: n.RoomID}
}

// settle records a run's outcome. It runs on the logical thread, from inside the run.
func (c *Coordinator) settle(ctx context.Context, groupID, pathID, runID string, node domain.NodeID, out domain.Outcome) {
	pr, ok := c.groups[groupID]
	if !ok || pr.current == nil || *pr.current != node {
		return
	}
	pr.last = &out
	pr.cleared = out.Succeeded()

	t := domain.EventRunEnded
	if !pr.cleared {
		t = domain.EventRunFailed
	}
	evt := c.event(t, groupID, pathID, node)
	evt.RunID = out.RunID
	evt.RoomID = out.RoomID
	evt.Score = out.Score
	evt.Reason = string(out.Reason)
	c.notifier.Notify(ctx, evt)

	if !pr.cleared {
		pr.attempts++
		if c.maxAttempts > 0 && pr.attempts >= c.maxAttempts {
			pr.failed = true
			evt := c.event(domain.EventPathFailed, groupID, pathID, node)
			evt.Reason = string(out.Reason)
			c.notifier.Notify(ctx, evt)
			c.logger.Info("Path failed", "group_id", groupID, "path_id", pathID, "attempts", pr.attempts)
		}
		return
	}

	g, err := c.paths.Get(ctx, groupID)
	if err != nil {
		c.logger.Error("Failed to load path after run", "group_id", groupID, "err", err)
		return
	}
	if len(g.Children(node)) > 0 {
		return
	}
	c.complete(ctx, groupID, runID, node, func(err error) {
		if err != nil {
			c.logger.Error("Failed to complete final node", "group_id", groupID, "node_id", node, "err", err)
			return
		}
		c.notifier.Notify(ctx, c.event(domain.EventPathCompleted, groupID, pathID, node))
		c.logger.Info("Path completed", "group_id", groupID, "path_id", pathID)
	})
}

// complete marks node completed on a worker, so the save never holds up the
// heartbeat, and hands the result back through Heartbeat.Post. An update that
// finds the path regenerated under a new run id is dropped.
func (c *Coordinator) complete(ctx context.Context, groupID, runID string, node domain.NodeID, done func(error)) {
	ctx = context.WithoutCancel(ctx)
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		_, err := c.paths.Update(ctx, groupID, func(g *domain.PathGraph) error {
			if g.RunID != runID {
				return errPathReplaced
			}
			return g.MarkCompleted(node)
		})
		c.deps.Heartbeat.Post(func() {
			if errors.Is(err, errPathReplaced) || errors.Is(err, domain.ErrGraphNotFound) {
				c.logger.Debug("Dropped completion of a replaced path", "group_id", groupID, "node_id", node)
				return
			}
			if err != nil {
				err = fmt.Errorf("complete node %d: %w", node, err)
			}
			done(err)
		})
	}()
}

// Wait blocks until every queued path update has been saved and posted back.
func (c *Coordinator) Wait() {
	c.workers.Wait()
}

// Available lists the nodes the group may select next.
func (c *Coordinator) Available(ctx context.Context, groupID string) ([]domain.NodeID, error) {
	if !c.parties.Exists(groupID) {
		return nil, domain.ErrGroupNotFound
	}
	g, err := c.paths.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	pr := c.progressOf(groupID)
	switch {
	case pr.failed, pr.run != nil && pr.run.Status().Active():
		return nil, nil
	case pr.current == nil:
		root, ok := g.Root()
		if n, _ := g.Node(root); !ok || n.Completed {
			return nil, nil
		}
		return []domain.NodeID{root}, nil
	case !pr.cleared:
		return []domain.NodeID{*pr.current}, nil
	}
	var out []domain.NodeID
	for _, id := range g.Children(*pr.current) {
		if n, _ := g.Node(id); !n.Completed {
			out = append(out, id)
		}
	}
	return out, nil
}

// Progress returns the group's position on its path.
func (c *Coordinator) Progress(groupID string) (Progress, error) {
	if !c.parties.Exists(groupID) {
		return Progress{}, domain.ErrGroupNotFound
	}
	pr := c.progressOf(groupID)
	out := Progress{
		GroupID:  groupID,
		Current:  pr.current,
		Cleared:  pr.cleared,
		Attempts: pr.attempts,
		Failed:   pr.failed,
		Last:     pr.last,
	}
	if pr.run != nil {
		snap := pr.run.Snapshot()
		out.Run = &snap
	}
	return out, nil
}

// Run returns the group's most recent run.
func (c *Coordinator) Run(groupID string) (*room.Run, error) {
	pr, ok := c.groups[groupID]
	if !ok || pr.run == nil {
		return nil, domain.ErrNoRun
	}
	return pr.run, nil
}

// Pause pauses the group's run.
func (c *Coordinator) Pause(ctx context.Context, groupID string) error {
	run, err := c.Run(groupID)
	if err != nil {
		return err
	}
	if err := run.Pause(); err != nil {
		return err
	}
	evt := domain.NewEvent(domain.EventRunPaused, groupID)
	evt.RunID = run.ID()
	c.notifier.Notify(ctx, evt)
	return nil
}

// Resume resumes the group's paused run.
func (c *Coordinator) Resume(ctx context.Context, groupID string) error {
	run, err := c.Run(groupID)
	if err != nil {
		return err
	}
	if err := run.Resume(); err != nil {
		return err
	}
	evt := domain.NewEvent(domain.EventRunResumed, groupID)
	evt.RunID = run.ID()
	c.notifier.Notify(ctx, evt)
	return nil
}

// Stop aborts the group's run.
func (c *Coordinator) Stop(ctx context.Context, groupID string) error {
	run, err := c.Run(groupID)
	if err != nil {
		return err
	}
	return run.Stop()
}

// ActorDefeated forwards the death of a spawned actor to the run that owns it.
func (c *Coordinator) ActorDefeated(actorID string) bool {
	for _, pr := range c.groups {
		if pr.run != nil && pr.run.ActorDefeated(actorID) {
			return true
		}
	}
	return false
}

// MemberDefeated records that a group member went down in the current run.
func (c *Coordinator) MemberDefeated(actor string) error {
	groupID, ok := c.parties.GroupOf(actor)
	if !ok {
		return domain.ErrNotMember
	}
	run, err := c.Run(groupID)
	if err != nil {
		return err
	}
	return run.MemberDefeated(actor)
}

// MemberLeft removes a departed member from the group's run.
func (c *Coordinator) MemberLeft(groupID, actor string) {
	if pr, ok := c.groups[groupID]; ok && pr.run != nil {
		pr.run.RemoveMember(actor)
	}
}

// Disband ends any run, deletes the group's path and forgets its progress.
func (c *Coordinator) Disband(ctx context.Context, groupID string) error {
	if pr, ok := c.groups[groupID]; ok && pr.run != nil {
		pr.run.Disband()
	}
	delete(c.groups, groupID)
	err := c.paths.Delete(ctx, groupID)
	c.notifier.Notify(ctx, domain.NewEvent(domain.EventGroupDisbanded, groupID))
	if err != nil && !errors.Is(err, domain.ErrGraphNotFound) {
		return err
	}
	return nil
}

func (c *Coordinator) event(t domain.EventType, groupID, pathID string, node domain.NodeID) domain.Event {
	evt := domain.NewEvent(t, groupID)
	evt.PathID = pathID
	evt.Node = domain.NodeRef(node)
	return evt
}

func (c *Coordinator) violation(groupID string, pr *progress, to domain.NodeID, reason string) error {
	var from *domain.NodeID
	if pr.current != nil {
		from = domain.NodeRef(*pr.current)
	}
	return &domain.TraversalViolationError{GroupID: groupID, From: from, To: to, Reason: reason}
}
