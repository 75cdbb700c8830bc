package room_test

import (
	"context"
	"fmt"

	"github.com/aretw0/roguepath/pkg/domain"
)

type fakeSpawner struct {
	next      int
	spawned   []domain.SpawnRequest
	frozen    [][]string
	unfrozen  [][]string
	despawned [][]string
}

func (f *fakeSpawner) Spawn(ctx context.Context, req domain.SpawnRequest) (string, error) {
	f.next++
	f.spawned = append(f.spawned, req)
	return fmt.Sprintf("actor-%d", f.next), nil
}

func (f *fakeSpawner) Freeze(ctx context.Context, ids []string) {
	f.frozen = append(f.frozen, ids)
}

func (f *fakeSpawner) Unfreeze(ctx context.Context, ids []string) {
	f.unfrozen = append(f.unfrozen, ids)
}

func (f *fakeSpawner) Despawn(ctx context.Context, ids []string) {
	f.despawned = append(f.despawned, ids)
}

// manualPlacer captures the completion callback so tests decide when placement finishes.
type manualPlacer struct {
	origin domain.Coordinate
	done   func(bool)
	ctx    context.Context
}

func (p *manualPlacer) Place(ctx context.Context, room domain.RoomDefinition, origin domain.Coordinate, done func(ok bool)) {
	p.ctx = ctx
	p.origin = origin
	p.done = done
}

type fixedOrigin domain.Coordinate

func (o fixedOrigin) ResolveOrigin(ctx context.Context, env string) (domain.Coordinate, error) {
	c := domain.Coordinate(o)
	c.World = env
	return c, nil
}
