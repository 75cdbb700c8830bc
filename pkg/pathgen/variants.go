package pathgen

import (
	"log/slog"

	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/ports"
)

// Frontier is the most recently generated level.
type Frontier struct {
	Level int
	Nodes []domain.NodeID
}

// Build is the working state handed to a Variant.
type Build struct {
	Graph  *domain.PathGraph
	Params domain.GenParams
	Rand   Rand

	catalog ports.RoomCatalog
	logger  *slog.Logger
}

// Remaining returns how many nodes the budget still allows.
func (b *Build) Remaining() int {
	return b.Params.NodeBudget - b.Graph.Len()
}

// NewNode creates a node at level, drawing its special flag and picking a room from pool.
func (b *Build) NewNode(level int, pool []string) domain.NodeID {
	special := b.Rand.Float64() < b.Params.SpecialProbability
	return b.newNode(level, special, pool)
}

func (b *Build) newNode(level int, special bool, pool []string) domain.NodeID {
	room, ok := SelectRoom(b.catalog, pool, level, b.Rand)
	id := b.Graph.AddNode(level, special, room)
	if !ok {
		b.logger.Warn("No eligible room for node",
			"path_id", b.Graph.PathID,
			"node_id", id,
			"level", level,
		)
	}
	return id
}

// Branching is the default variant. Each level draws between one and
// MaxBranches nodes, gives every new node a random parent from the previous
// level, then lets previous-level nodes take extra children up to their
// remaining fan-out, which re-joins branches into a DAG.
func Branching(b *Build) Frontier {
	root, _ := b.Graph.Root()
	branches := b.Params.Branches()
	front := Frontier{Level: 0, Nodes: []domain.NodeID{root}}

	for level := 1; level < b.Params.MaxHeight; level++ {
		remaining := b.Remaining()
		if remaining <= 0 || len(front.Nodes) == 0 {
			break
		}

		count := 1 + b.Rand.IntN(min(branches, remaining))
		created := make([]domain.NodeID, count)
		for i := range created {
			created[i] = b.NewNode(level, b.Params.RoomPool)
		}

		// Coverage: every new node gets at least one parent.
		for _, child := range created {
			parent := front.Nodes[b.Rand.IntN(len(front.Nodes))]
			_ = b.Graph.Link(parent, child)
		}

		// Saturation: parents take extra children up to their free fan-out.
		for _, parent := range front.Nodes {
			free := branches - len(b.Graph.Children(parent))
			if free <= 0 {
				continue
			}
			extra := b.Rand.IntN(free + 1)
			var candidates []domain.NodeID
			for _, child := range created {
				if !b.Graph.HasEdge(parent, child) {
					candidates = append(candidates, child)
				}
			}
			for ; extra > 0 && len(candidates) > 0; extra-- {
				i := b.Rand.IntN(len(candidates))
				_ = b.Graph.Link(parent, candidates[i])
				candidates = append(candidates[:i], candidates[i+1:]...)
			}
		}

		front = Frontier{Level: level, Nodes: created}
	}
	return front
}

// Linear grows a single chain, one node per level.
func Linear(b *Build) Frontier {
	root, _ := b.Graph.Root()
	front := Frontier{Level: 0, Nodes: []domain.NodeID{root}}

	for level := 1; level < b.Params.MaxHeight && b.Remaining() > 0; level++ {
		id := b.NewNode(level, b.Params.RoomPool)
		_ = b.Graph.Link(front.Nodes[0], id)
		front = Frontier{Level: level, Nodes: []domain.NodeID{id}}
	}
	return front
}
