package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/aretw0/roguepath/pkg/spawn"
	"github.com/google/uuid"
)

// Deps are the host collaborators of a run. Only Heartbeat is required.
type Deps struct {
	Heartbeat ports.Heartbeat
	Placer    ports.StructurePlacer
	Spawner   ports.ActorSpawner
	Origins   ports.OriginResolver
}

// Snapshot is a read-only view of a run.
type Snapshot struct {
	ID        string           `json:"id"`
	GroupID   string           `json:"group_id"`
	RoomID    string           `json:"room_id"`
	Status    domain.RunStatus `json:"status"`
	Remaining int              `json:"remaining"`
	Elapsed   int              `json:"elapsed"`
	Alive     int              `json:"alive"`
	Members   int              `json:"members"`
	Defeated  int              `json:"defeated"`
}

// Run is a live encounter of one room for one group.
type Run struct {
	id      string
	groupID string
	room    domain.RoomDefinition
	env     string
	deps    Deps

	timerInterval time.Duration
	spawnInterval time.Duration
	scorer        Scorer
	onEnd         func(domain.Outcome)
	logger        *slog.Logger

	ctx         context.Context
	placeCancel context.CancelFunc

	status    domain.RunStatus
	remaining int
	elapsed   int

	members  []string
	defeated map[string]bool

	sched     *spawn.Scheduler
	alive     []string
	keys      map[string]bool
	keySpawns int

	cancelSpawn func()
	cancelTimer func()

	cleaned bool
	outcome *domain.Outcome
}

// Option configures a Run.
type Option func(*Run)

// WithID sets the run id. Defaults to a random UUID.
func WithID(id string) Option {
	return func(r *Run) {
		r.id = id
	}
}

// WithEnvironment sets the environment reference the placement origin is resolved from.
func WithEnvironment(env string) Option {
	return func(r *Run) {
		r.env = env
	}
}

// WithIntervals sets the timer and spawn cadences. Non-positive values keep the default of one second.
func WithIntervals(timer, spawn time.Duration) Option {
	return func(r *Run) {
		if timer > 0 {
			r.timerInterval = timer
		}
		if spawn > 0 {
			r.spawnInterval = spawn
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s Scorer) Option {
	return func(r *Run) {
		r.scorer = s
	}
}

// OnEnd registers the callback invoked once with the outcome.
func OnEnd(fn func(domain.Outcome)) Option {
	return func(r *Run) {
		r.onEnd = fn
	}
}

// WithLogger configures a logger for the Run.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Run) {
		r.logger = logger
	}
}

// NewRun creates an idle run of room for the group's members.
func NewRun(room domain.RoomDefinition, groupID string, members []string, deps Deps, opts ...Option) *Run {
	r := &Run{
		id:            uuid.NewString(),
		groupID:       groupID,
		room:          room,
		deps:          deps,
		timerInterval: time.Second,
		spawnInterval: time.Second,
		scorer:        DefaultScorer(),
		logger:        logging.NewNop(),
		ctx:           context.Background(),
		status:        domain.StatusIdle,
		members:       append([]string(nil), members...),
		defeated:      make(map[string]bool),
		keys:          make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sched = spawn.New(room.SpawnPoints, domain.Coordinate{})
	return r
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// Room returns the room definition the run plays.
func (r *Run) Room() domain.RoomDefinition { return r.room }

// Status returns the lifecycle state.
func (r *Run) Status() domain.RunStatus { return r.status }

// Outcome returns the settled outcome once the run has ended.
func (r *Run) Outcome() (domain.Outcome, bool) {
	if r.outcome == nil {
		return domain.Outcome{}, false
	}
	return *r.outcome, true
}

// Snapshot returns a view of the run's counters.
func (r *Run) Snapshot() Snapshot {
	return Snapshot{
		ID:        r.id,
		GroupID:   r.groupID,
		RoomID:    r.room.ID,
		Status:    r.status,
		Remaining: r.remaining,
		Elapsed:   r.elapsed,
		Alive:     len(r.alive),
		Members:   len(r.members),
		Defeated:  r.defeatedCount(),
	}
}

// Start resolves the placement origin and places the structure. The run stays
// in Placing until the placement completes; spawning and the timer begin only
// after a successful placement.
func (r *Run) Start(ctx context.Context) error {
	if r.status != domain.StatusIdle {
		return r.illegal("start")
	}
	r.ctx = context.WithoutCancel(ctx)
	r.status = domain.StatusPlacing

	origin := r.room.Entry
	if r.deps.Origins != nil {
		base, err := r.deps.Origins.ResolveOrigin(ctx, r.env)
		if err != nil {
			r.logger.Error("Failed to resolve placement origin", "run_id", r.id, "room_id", r.room.ID, "err", err)
			r.finish(domain.ReasonPlacementFailed)
			return err
		}
		origin = base
	}
	r.sched.SetOrigin(origin)

	r.logger.Debug("Placing room", "run_id", r.id, "room_id", r.room.ID, "group_id", r.groupID)
	if r.deps.Placer == nil {
		r.placed(true)
		return nil
	}

	placeCtx, cancel := context.WithCancel(r.ctx)
	r.placeCancel = cancel
	var once sync.Once
	r.deps.Placer.Place(placeCtx, r.room, origin, func(ok bool) {
		once.Do(func() {
			r.deps.Heartbeat.Post(func() { r.placed(ok) })
		})
	})
	return nil
}

func (r *Run) placed(ok bool) {
	if r.status != domain.StatusPlacing {
		return
	}
	if r.placeCancel != nil {
		r.placeCancel()
		r.placeCancel = nil
	}
	if !ok {
		r.logger.Warn("Structure placement failed", "run_id", r.id, "room_id", r.room.ID)
		r.finish(domain.ReasonPlacementFailed)
		return
	}

	r.remaining = int(r.room.TimeLimit)
	r.elapsed = 0
	r.keySpawns = 0
	r.sched.Reset()
	r.status = domain.StatusRunning
	r.activate()
	r.logger.Info("Room run started", "run_id", r.id, "room_id", r.room.ID, "group_id", r.groupID, "time_limit", r.room.TimeLimit)
}

// Pause cancels the timer and spawning and freezes tracked actors.
func (r *Run) Pause() error {
	if r.status != domain.StatusRunning {
		return r.illegal("pause")
	}
	r.deactivate()
	if r.deps.Spawner != nil && len(r.alive) > 0 {
		r.deps.Spawner.Freeze(r.ctx, r.aliveIDs())
	}
	r.status = domain.StatusPaused
	return nil
}

// Resume re-activates the timer and spawning with the remaining time frozen at pause.
func (r *Run) Resume() error {
	if r.status != domain.StatusPaused {
		return r.illegal("resume")
	}
	r.status = domain.StatusRunning
	// Key actors defeated while paused clear the room on resume.
	if r.cleared() {
		r.finish(domain.ReasonCleared)
		return nil
	}
	if r.deps.Spawner != nil && len(r.alive) > 0 {
		r.deps.Spawner.Unfreeze(r.ctx, r.aliveIDs())
	}
	r.activate()
	return nil
}

// Stop aborts the run. It is legal while placing, running or paused and always
// leaves the run Ended.
func (r *Run) Stop() error {
	if !r.status.Active() {
		return r.illegal("stop")
	}
	r.finish(domain.ReasonAborted)
	return nil
}

// End ends the run. Ending an ended run is a no-op.
func (r *Run) End() {
	if r.status == domain.StatusEnded {
		return
	}
	r.finish(domain.ReasonAborted)
}

// Disband ends the run because its group no longer exists.
func (r *Run) Disband() {
	if r.status == domain.StatusEnded {
		return
	}
	r.finish(domain.ReasonDisbanded)
}

// ActorDefeated records the death of a spawned actor. It reports whether the
// actor belonged to this run. The run is cleared once every key actor the room
// can produce has been defeated; while paused, that happens on Resume.
func (r *Run) ActorDefeated(actorID string) bool {
	idx := -1
	for i, id := range r.alive {
		if id == actorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	r.alive = append(r.alive[:idx], r.alive[idx+1:]...)
	delete(r.keys, actorID)

	if r.status == domain.StatusRunning && r.cleared() {
		r.finish(domain.ReasonCleared)
	}
	return true
}

// cleared reports whether every key actor the room can produce has been spawned and defeated.
func (r *Run) cleared() bool {
	return r.keySpawns > 0 && len(r.keys) == 0 && !r.sched.KeyPending()
}

// MemberDefeated marks a group member as defeated. The run is wiped when no member is left standing.
func (r *Run) MemberDefeated(actor string) error {
	if !r.hasMember(actor) {
		return domain.ErrNotMember
	}
	r.defeated[actor] = true
	if r.status.Active() && r.allDefeated() {
		r.finish(domain.ReasonWiped)
	}
	return nil
}

// RemoveMember drops a member that left the group. A run without members ends as disbanded.
func (r *Run) RemoveMember(actor string) {
	for i, m := range r.members {
		if m == actor {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	delete(r.defeated, actor)
	if !r.status.Active() {
		return
	}
	switch {
	case len(r.members) == 0:
		r.finish(domain.ReasonDisbanded)
	case r.allDefeated():
		r.finish(domain.ReasonWiped)
	}
}

func (r *Run) activate() {
	r.cancelSpawn = r.deps.Heartbeat.Every(r.spawnInterval, r.spawnTick)
	r.cancelTimer = r.deps.Heartbeat.Every(r.timerInterval, r.timerTick)
}

func (r *Run) deactivate() {
	if r.cancelSpawn != nil {
		r.cancelSpawn()
		r.cancelSpawn = nil
	}
	if r.cancelTimer != nil {
		r.cancelTimer()
		r.cancelTimer = nil
	}
}

func (r *Run) spawnTick() {
	if r.status != domain.StatusRunning {
		return
	}
	for _, req := range r.sched.Tick() {
		if r.deps.Spawner == nil {
			continue
		}
		id, err := r.deps.Spawner.Spawn(r.ctx, req)
		if err != nil {
			r.logger.Warn("Spawn failed", "run_id", r.id, "point", req.PointID, "actor", req.Actor.Type, "err", err)
			continue
		}
		r.alive = append(r.alive, id)
		if req.Actor.Key {
			r.keys[id] = true
			r.keySpawns++
		}
	}
}

func (r *Run) timerTick() {
	if r.status != domain.StatusRunning {
		return
	}
	r.remaining--
	r.elapsed++
	if r.remaining <= 0 {
		r.remaining = 0
		r.finish(domain.ReasonTimeout)
	}
}

// finish moves the run through Stopped to Ended, cleaning up and settling the outcome once.
func (r *Run) finish(reason domain.EndReason) {
	if r.status == domain.StatusEnded || r.status == domain.StatusStopped {
		return
	}
	r.status = domain.StatusStopped
	r.deactivate()
	r.sched.Stop()
	if r.placeCancel != nil {
		r.placeCancel()
		r.placeCancel = nil
	}
	r.cleanup()

	r.status = domain.StatusEnded
	out := domain.Outcome{
		RunID:     r.id,
		RoomID:    r.room.ID,
		Reason:    reason,
		Remaining: r.remaining,
		Elapsed:   r.elapsed,
	}
	switch reason {
	case domain.ReasonCleared, domain.ReasonTimeout, domain.ReasonWiped:
		out.Score = r.scorer.Score(ScoreInput{
			Base:      r.room.BaseScore,
			Remaining: r.remaining,
			Limit:     int(r.room.TimeLimit),
			Members:   len(r.members),
			Defeated:  r.defeatedCount(),
		})
	}
	r.outcome = &out

	r.logger.Info("Room run ended",
		"run_id", r.id,
		"room_id", r.room.ID,
		"group_id", r.groupID,
		"reason", reason,
		"score", out.Score,
	)
	if r.onEnd != nil {
		r.onEnd(out)
	}
}

func (r *Run) cleanup() {
	if r.cleaned {
		return
	}
	r.cleaned = true
	if r.deps.Spawner != nil && len(r.alive) > 0 {
		r.deps.Spawner.Despawn(r.ctx, r.aliveIDs())
	}
	r.alive = nil
	clear(r.keys)
}

func (r *Run) illegal(op string) error {
	r.logger.Debug("Illegal run transition", "run_id", r.id, "op", op, "status", r.status)
	return &domain.IllegalTransitionError{Op: op, From: r.status}
}

func (r *Run) aliveIDs() []string {
	return append([]string(nil), r.alive...)
}

func (r *Run) hasMember(actor string) bool {
	for _, m := range r.members {
		if m == actor {
			return true
		}
	}
	return false
}

func (r *Run) defeatedCount() int {
	n := 0
	for _, m := range r.members {
		if r.defeated[m] {
			n++
		}
	}
	return n
}

func (r *Run) allDefeated() bool {
	return len(r.members) > 0 && r.defeatedCount() == len(r.members)
}
