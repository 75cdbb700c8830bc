package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/roguepath/pkg/domain"
)

// Builder records a graph's shape until Build.
type Builder struct {
	pathID string
	runID  string
	params domain.GenParams

	nodes []*NodeBuilder
	err   error
}

// New creates a new graph builder.
func New(pathID string) *Builder {
	return &Builder{pathID: pathID}
}

// RunID sets the run id of the built graph.
func (b *Builder) RunID(id string) *Builder {
	b.runID = id
	return b
}

// Params sets the generation parameters recorded on the graph.
func (b *Builder) Params(p domain.GenParams) *Builder {
	b.params = p
	return b
}

// Root declares the level 0 node. It must be the first node declared.
func (b *Builder) Root(roomID string) *NodeBuilder {
	if len(b.nodes) > 0 {
		b.fail(errors.New("root must be declared first"))
	}
	return b.add(0, roomID)
}

// Node declares a free-standing node on level. Link it with NodeBuilder.Link.
func (b *Builder) Node(level int, roomID string) *NodeBuilder {
	if len(b.nodes) == 0 && level != 0 {
		b.fail(fmt.Errorf("first node must be on level 0, got %d", level))
	}
	return b.add(level, roomID)
}

// Join declares a node one level above the highest parent and links every parent to it.
func (b *Builder) Join(roomID string, parents ...*NodeBuilder) *NodeBuilder {
	if len(parents) == 0 {
		b.fail(errors.New("join needs at least one parent"))
		return b.add(0, roomID)
	}
	level := 0
	for _, p := range parents {
		level = max(level, p.level+1)
	}
	n := b.add(level, roomID)
	for _, p := range parents {
		p.Link(n)
	}
	return n
}

func (b *Builder) add(level int, roomID string) *NodeBuilder {
	n := &NodeBuilder{
		builder: b,
		index:   len(b.nodes),
		level:   level,
		roomID:  roomID,
	}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build materializes the graph. The first declaration error, or the first
// edge the graph rejects, is returned.
func (b *Builder) Build() (*domain.PathGraph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.nodes) == 0 {
		return nil, errors.New("graph has no nodes")
	}

	g := domain.NewPathGraph(b.pathID, b.runID, b.params)
	ids := make([]domain.NodeID, len(b.nodes))
	for i, n := range b.nodes {
		ids[i] = g.AddNode(n.level, n.special, n.roomID)
	}
	for i, n := range b.nodes {
		for _, c := range n.children {
			if err := g.Link(ids[i], ids[c.index]); err != nil {
				return nil, fmt.Errorf("failed to build graph: %w", err)
			}
		}
		if n.completed {
			if err := g.MarkCompleted(ids[i]); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}
