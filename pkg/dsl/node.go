package dsl

import (
	"errors"

	"github.com/aretw0/roguepath/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	builder *Builder
	index   int

	level     int
	roomID    string
	special   bool
	completed bool
	children  []*NodeBuilder
}

// Then declares a child one level up and returns it.
func (n *NodeBuilder) Then(roomID string) *NodeBuilder {
	child := n.builder.add(n.level+1, roomID)
	n.children = append(n.children, child)
	return child
}

// Link adds an edge to an already declared node.
func (n *NodeBuilder) Link(child *NodeBuilder) *NodeBuilder {
	if child.builder != n.builder {
		n.builder.fail(errors.New("cannot link nodes of different builders"))
		return n
	}
	n.children = append(n.children, child)
	return n
}

// Special marks the node with the gameplay special flag.
func (n *NodeBuilder) Special() *NodeBuilder {
	n.special = true
	return n
}

// Completed marks the node as already passed.
func (n *NodeBuilder) Completed() *NodeBuilder {
	n.completed = true
	return n
}

// ID returns the id the node will receive on Build.
func (n *NodeBuilder) ID() domain.NodeID {
	return domain.NodeID(n.index)
}

// Level returns the node's level.
func (n *NodeBuilder) Level() int {
	return n.level
}
