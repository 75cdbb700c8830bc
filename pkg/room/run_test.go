package room_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/room"
	"github.com/aretw0/roguepath/pkg/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arena(limit int) domain.RoomDefinition {
	return domain.RoomDefinition{
		ID: "arena", TimeLimit: domain.TimerUnits(limit), BaseScore: 100,
		SpawnPoints: []domain.SpawnPoint{
			{ID: "a", Offset: domain.Coordinate{X: 1}, Wait: 1, Cap: 2, Actors: []domain.ActorTemplate{{Type: "grunt"}}},
			{ID: "b", Wait: 2, Cap: 1, Actors: []domain.ActorTemplate{{Type: "boss", Key: true}}},
		},
	}
}

type harness struct {
	loop     *tick.Loop
	spawner  *fakeSpawner
	outcomes []domain.Outcome
	run      *room.Run
}

func newHarness(t *testing.T, def domain.RoomDefinition, members []string, deps room.Deps, opts ...room.Option) *harness {
	t.Helper()
	h := &harness{loop: tick.New(), spawner: &fakeSpawner{}}
	deps.Heartbeat = h.loop
	if deps.Spawner == nil {
		deps.Spawner = h.spawner
	}
	opts = append(opts, room.OnEnd(func(o domain.Outcome) { h.outcomes = append(h.outcomes, o) }), room.WithID("run-1"))
	h.run = room.NewRun(def, "g1", members, deps, opts...)
	return h
}

func TestRun_TimeoutAfterLimit(t *testing.T) {
	noSpawns := arena(10)
	noSpawns.SpawnPoints = nil
	h := newHarness(t, noSpawns, []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	assert.Equal(t, domain.StatusRunning, h.run.Status())

	h.loop.Advance(9 * time.Second)
	assert.Equal(t, domain.StatusRunning, h.run.Status())
	assert.Equal(t, 1, h.run.Snapshot().Remaining)

	h.loop.Advance(time.Second)
	assert.Equal(t, domain.StatusEnded, h.run.Status())
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonTimeout, h.outcomes[0].Reason)
	assert.Equal(t, 10, h.outcomes[0].Elapsed)
	assert.Equal(t, 100, h.outcomes[0].Score, "no early bonus at the limit")
	assert.Equal(t, 0, h.loop.Pending(), "tasks cancelled")

	h.loop.Advance(5 * time.Second)
	assert.Len(t, h.outcomes, 1, "outcome fires exactly once")
}

func TestRun_SpawnsBeforeTimerWithinTick(t *testing.T) {
	h := newHarness(t, arena(1), []string{"alice"}, room.Deps{Origins: fixedOrigin{X: 10}}, room.WithEnvironment("w1"))
	require.NoError(t, h.run.Start(context.Background()))

	h.loop.Advance(time.Second)
	require.Len(t, h.spawner.spawned, 1, "spawning evaluated before the final timer tick")
	assert.Equal(t, domain.Coordinate{World: "w1", X: 11}, h.spawner.spawned[0].Position)
	assert.Equal(t, domain.ReasonTimeout, h.outcomes[0].Reason)
	assert.Equal(t, [][]string{{"actor-1"}}, h.spawner.despawned)
}

func TestRun_PauseResumeFreezesState(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.loop.Advance(2 * time.Second)
	require.Len(t, h.spawner.spawned, 3)

	require.NoError(t, h.run.Pause())
	assert.Equal(t, domain.StatusPaused, h.run.Status())
	assert.Equal(t, 0, h.loop.Pending(), "pause cancels tasks synchronously")
	assert.Equal(t, [][]string{{"actor-1", "actor-2", "actor-3"}}, h.spawner.frozen)

	h.loop.Advance(30 * time.Second)
	snap := h.run.Snapshot()
	assert.Equal(t, 8, snap.Remaining, "no stray tick while paused")
	assert.Len(t, h.spawner.spawned, 3)

	var ite *domain.IllegalTransitionError
	require.ErrorAs(t, h.run.Pause(), &ite)
	assert.Equal(t, domain.StatusPaused, ite.From)

	require.NoError(t, h.run.Resume())
	assert.Len(t, h.spawner.unfrozen, 1)
	h.loop.Advance(time.Second)
	assert.Equal(t, 7, h.run.Snapshot().Remaining)
}

func TestRun_IllegalTransitions(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})

	var ite *domain.IllegalTransitionError
	require.ErrorAs(t, h.run.Pause(), &ite)
	assert.Equal(t, "pause", ite.Op)
	assert.Equal(t, domain.StatusIdle, ite.From)
	require.ErrorAs(t, h.run.Resume(), &ite)
	require.ErrorAs(t, h.run.Stop(), &ite)
	assert.Equal(t, domain.StatusIdle, h.run.Status())

	require.NoError(t, h.run.Start(context.Background()))
	require.ErrorAs(t, h.run.Start(context.Background()), &ite)
	require.ErrorAs(t, h.run.Resume(), &ite)
	assert.Equal(t, domain.StatusRunning, h.run.Status())
}

func TestRun_StopCleansUpOnce(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.loop.Advance(time.Second)
	require.NoError(t, h.run.Pause())

	require.NoError(t, h.run.Stop())
	assert.Equal(t, domain.StatusEnded, h.run.Status())
	assert.Len(t, h.spawner.despawned, 1)
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonAborted, h.outcomes[0].Reason)
	assert.Equal(t, 0, h.outcomes[0].Score)

	var ite *domain.IllegalTransitionError
	require.ErrorAs(t, h.run.Stop(), &ite)
	h.run.End()
	assert.Len(t, h.spawner.despawned, 1)
	assert.Len(t, h.outcomes, 1)
}

func TestRun_PlacementIsTwoPhase(t *testing.T) {
	placer := &manualPlacer{}
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{Placer: placer})
	require.NoError(t, h.run.Start(context.Background()))
	assert.Equal(t, domain.StatusPlacing, h.run.Status())

	h.loop.Advance(5 * time.Second)
	assert.Empty(t, h.spawner.spawned, "no spawning before placement completes")

	go placer.done(true)
	require.Eventually(t, func() bool {
		h.loop.Drain()
		return h.run.Status() == domain.StatusRunning
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 10, h.run.Snapshot().Remaining)
}

func TestRun_PlacementFailure(t *testing.T) {
	placer := &manualPlacer{}
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{Placer: placer})
	require.NoError(t, h.run.Start(context.Background()))

	placer.done(false)
	placer.done(true)
	h.loop.Drain()
	assert.Equal(t, domain.StatusEnded, h.run.Status())
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonPlacementFailed, h.outcomes[0].Reason)
}

func TestRun_StopWhilePlacing(t *testing.T) {
	placer := &manualPlacer{}
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{Placer: placer})
	require.NoError(t, h.run.Start(context.Background()))
	require.NoError(t, h.run.Stop())
	assert.Error(t, placer.ctx.Err(), "placement context cancelled")

	placer.done(true)
	h.loop.Drain()
	assert.Equal(t, domain.StatusEnded, h.run.Status())
	assert.Equal(t, 0, h.loop.Pending())
	assert.Len(t, h.outcomes, 1)
}

func TestRun_ClearedWhenKeyActorsDefeated(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.loop.Advance(2 * time.Second)

	var boss string
	for i, req := range h.spawner.spawned {
		if req.Actor.Key {
			boss = []string{"actor-1", "actor-2", "actor-3"}[i]
		}
	}
	require.NotEmpty(t, boss)

	assert.True(t, h.run.ActorDefeated("actor-1"))
	assert.False(t, h.run.ActorDefeated("stranger"))
	assert.Equal(t, domain.StatusRunning, h.run.Status())

	assert.True(t, h.run.ActorDefeated(boss))
	assert.Equal(t, domain.StatusEnded, h.run.Status())
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonCleared, h.outcomes[0].Reason)
	assert.Equal(t, 180, h.outcomes[0].Score, "8 of 10 seconds left")
}

func TestRun_KeyActorsDefeatedWhilePausedClearOnResume(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.loop.Advance(2 * time.Second)
	require.Len(t, h.spawner.spawned, 3)

	require.NoError(t, h.run.Pause())
	for _, id := range []string{"actor-1", "actor-2", "actor-3"} {
		assert.True(t, h.run.ActorDefeated(id))
	}
	assert.Equal(t, domain.StatusPaused, h.run.Status(), "a paused run does not settle")
	assert.Empty(t, h.outcomes)

	require.NoError(t, h.run.Resume())
	assert.Equal(t, domain.StatusEnded, h.run.Status())
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonCleared, h.outcomes[0].Reason)
	assert.Equal(t, 180, h.outcomes[0].Score, "8 of 10 seconds left at pause")
	assert.Empty(t, h.spawner.unfrozen)
	assert.Equal(t, 0, h.loop.Pending())
}

func TestRun_ResumeWithKeyActorAliveKeepsRunning(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.loop.Advance(2 * time.Second)

	require.NoError(t, h.run.Pause())
	assert.True(t, h.run.ActorDefeated("actor-1"))
	require.NoError(t, h.run.Resume())
	assert.Equal(t, domain.StatusRunning, h.run.Status())
	assert.Empty(t, h.outcomes)
}

func TestRun_WipeScoresZero(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice", "bob"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))

	require.NoError(t, h.run.MemberDefeated("alice"))
	assert.Equal(t, domain.StatusRunning, h.run.Status())
	assert.ErrorIs(t, h.run.MemberDefeated("mallory"), domain.ErrNotMember)

	require.NoError(t, h.run.MemberDefeated("bob"))
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonWiped, h.outcomes[0].Reason)
	assert.Equal(t, 0, h.outcomes[0].Score)
}

func TestRun_LastMemberLeaving(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.run.RemoveMember("alice")
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonDisbanded, h.outcomes[0].Reason)
	assert.Equal(t, 0, h.outcomes[0].Score)
}

func TestRun_DisbandWithMembersPresent(t *testing.T) {
	h := newHarness(t, arena(10), []string{"alice", "bob"}, room.Deps{})
	require.NoError(t, h.run.Start(context.Background()))
	h.run.Disband()
	h.run.Disband()
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, domain.ReasonDisbanded, h.outcomes[0].Reason)
	assert.Equal(t, 0, h.outcomes[0].Score)
	assert.Equal(t, 0, h.loop.Pending())
}
