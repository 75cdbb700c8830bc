package ports

import (
	"context"
	"time"

	"github.com/aretw0/roguepath/pkg/domain"
)

// Heartbeat is the host's logical thread. Every callback it invokes runs
// serialized with every other callback.
type Heartbeat interface {
	// Every schedules fn at the given interval until the returned cancel is called.
	// After cancel returns, fn is not invoked again.
	Every(interval time.Duration, fn func()) (cancel func())

	// Post runs fn once on the logical thread, as soon as possible.
	Post(fn func())
}

// StructurePlacer pastes a room structure into the world.
type StructurePlacer interface {
	// Place starts an asynchronous placement. done is invoked exactly once, from
	// any goroutine, with the result.
	Place(ctx context.Context, room domain.RoomDefinition, origin domain.Coordinate, done func(ok bool))
}

// OriginResolver maps an environment reference to the placement origin of a room.
type OriginResolver interface {
	ResolveOrigin(ctx context.Context, environment string) (domain.Coordinate, error)
}

// ActorSpawner materializes and controls actors in the world.
type ActorSpawner interface {
	// Spawn creates one actor and returns its handle.
	Spawn(ctx context.Context, req domain.SpawnRequest) (string, error)
	// Freeze halts the listed actors' movement and attacks.
	Freeze(ctx context.Context, ids []string)
	// Unfreeze reverses Freeze.
	Unfreeze(ctx context.Context, ids []string)
	// Despawn removes the listed actors from the world.
	Despawn(ctx context.Context, ids []string)
}

// Notifier receives progress events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, evt domain.Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, evt domain.Event)

func (f NotifierFunc) Notify(ctx context.Context, evt domain.Event) { f(ctx, evt) }

// MultiNotifier fans an event out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, evt domain.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, evt)
		}
	}
}
