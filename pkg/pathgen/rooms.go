package pathgen

import "github.com/aretw0/roguepath/pkg/ports"

// Rand is the random source used by generation. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// SelectRoom picks a room for a node at level from pool, uniformly among the
// ids the catalog knows and whose floor range contains level.
// It returns false when no room in the pool is eligible.
func SelectRoom(catalog ports.RoomCatalog, pool []string, level int, rng Rand) (string, bool) {
	if catalog == nil {
		return "", false
	}
	var valid []string
	for _, id := range pool {
		room, ok := catalog.Room(id)
		if ok && room.ValidFor(level) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return "", false
	}
	return valid[rng.IntN(len(valid))], true
}
