package domain

import (
	"fmt"
	"sort"
)

// PathGraph is a level-ordered DAG of nodes materialized for one run.
//
// The graph is an arena: it owns a flat collection of nodes keyed by id and
// stores edges as id pairs. A PathGraph is not safe for concurrent use; callers
// serialize access per owning group.
type PathGraph struct {
	// PathID is the stable, user-assigned path identifier.
	PathID string
	// RunID is unique per materialization of the path.
	RunID string
	// Params are the parameters the graph was generated with.
	Params GenParams

	root    NodeID
	hasRoot bool
	nodes   map[NodeID]*Node
	order   []NodeID
	nextID  NodeID
}

// NewPathGraph creates an empty graph.
func NewPathGraph(pathID, runID string, params GenParams) *PathGraph {
	return &PathGraph{
		PathID: pathID,
		RunID:  runID,
		Params: params.clone(),
		nodes:  make(map[NodeID]*Node),
	}
}

// AddNode creates a node with the next id. The first node added becomes the root.
func (g *PathGraph) AddNode(level int, special bool, roomID string) NodeID {
	id := g.nextID
	g.nextID++
	g.insert(&Node{
		ID:      id,
		Level:   level,
		Special: special,
		RoomID:  roomID,
	})
	if !g.hasRoot {
		g.root = id
		g.hasRoot = true
	}
	return id
}

// RestoreNode inserts a node with an explicit id, as read from a persisted document.
// Edges on n are ignored; they are rebuilt with Link.
func (g *PathGraph) RestoreNode(n Node) error {
	if n.ID < 0 {
		return fmt.Errorf("node id %d: negative id", n.ID)
	}
	if n.Level < 0 {
		return fmt.Errorf("node %d: negative level %d", n.ID, n.Level)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %d: duplicate id", n.ID)
	}
	g.insert(&Node{
		ID:        n.ID,
		Level:     n.Level,
		Special:   n.Special,
		Completed: n.Completed,
		RoomID:    n.RoomID,
	})
	if n.ID >= g.nextID {
		g.nextID = n.ID + 1
	}
	return nil
}

func (g *PathGraph) insert(n *Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

// SetRoot designates an existing parentless node as the root.
func (g *PathGraph) SetRoot(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("root %d: unknown node", id)
	}
	if len(n.Parents) > 0 {
		return fmt.Errorf("root %d: node has parents", id)
	}
	g.root = id
	g.hasRoot = true
	return nil
}

// Link adds a parent -> child edge. Linking an existing edge is a no-op.
// The child must sit on a strictly higher level than the parent, which keeps
// the graph acyclic by construction.
func (g *PathGraph) Link(parent, child NodeID) error {
	p, ok := g.nodes[parent]
	if !ok {
		return fmt.Errorf("link %d -> %d: unknown parent", parent, child)
	}
	c, ok := g.nodes[child]
	if !ok {
		return fmt.Errorf("link %d -> %d: unknown child", parent, child)
	}
	if c.Level <= p.Level {
		return fmt.Errorf("link %d -> %d: child level %d is not above parent level %d", parent, child, c.Level, p.Level)
	}
	if containsID(p.Children, child) {
		return nil
	}
	p.Children = append(p.Children, child)
	c.Parents = append(c.Parents, parent)
	return nil
}

// OrderChildren replaces the child order of id with order, which must be a
// permutation of the node's current children.
func (g *PathGraph) OrderChildren(id NodeID, order []NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: unknown node", id)
	}
	if len(order) != len(n.Children) {
		return fmt.Errorf("node %d: child list has %d entries, graph has %d", id, len(order), len(n.Children))
	}
	seen := make(map[NodeID]bool, len(order))
	for _, c := range order {
		if seen[c] || !containsID(n.Children, c) {
			return fmt.Errorf("node %d: child list does not match parent links", id)
		}
		seen[c] = true
	}
	n.Children = append([]NodeID{}, order...)
	return nil
}

// Root returns the root node id and whether the graph has one.
func (g *PathGraph) Root() (NodeID, bool) {
	return g.root, g.hasRoot
}

// Len returns the number of nodes.
func (g *PathGraph) Len() int {
	return len(g.nodes)
}

// Node returns a copy of the node with the given id.
func (g *PathGraph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// IDs returns node ids in creation order.
func (g *PathGraph) IDs() []NodeID {
	return append([]NodeID{}, g.order...)
}

// Nodes returns copies of all nodes in creation order.
func (g *PathGraph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Children returns the child ids of a node.
func (g *PathGraph) Children(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		return append([]NodeID{}, n.Children...)
	}
	return nil
}

// Parents returns the parent ids of a node.
func (g *PathGraph) Parents(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		return append([]NodeID{}, n.Parents...)
	}
	return nil
}

// HasEdge reports whether child is a direct child of parent.
func (g *PathGraph) HasEdge(parent, child NodeID) bool {
	if n, ok := g.nodes[parent]; ok {
		return containsID(n.Children, child)
	}
	return false
}

// Level returns the ids on a given level, in creation order.
func (g *PathGraph) Level(level int) []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if g.nodes[id].Level == level {
			out = append(out, id)
		}
	}
	return out
}

// Height returns the highest level present, or -1 for an empty graph.
func (g *PathGraph) Height() int {
	h := -1
	for _, n := range g.nodes {
		if n.Level > h {
			h = n.Level
		}
	}
	return h
}

// MarkCompleted flags a node as completed.
func (g *PathGraph) MarkCompleted(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: unknown node", id)
	}
	n.Completed = true
	return nil
}

// SetRoom assigns a room to a node.
func (g *PathGraph) SetRoom(id NodeID, roomID string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: unknown node", id)
	}
	n.RoomID = roomID
	return nil
}

// Unresolved returns the ids of nodes without a room, sorted.
func (g *PathGraph) Unresolved() []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if g.nodes[id].RoomID == "" {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Walk visits every node reachable from the root breadth-first, each exactly once.
func (g *PathGraph) Walk(fn func(Node)) {
	for _, id := range g.BreadthFirst() {
		fn(g.nodes[id].clone())
	}
}

// BreadthFirst returns the ids reachable from the root in breadth-first order.
func (g *PathGraph) BreadthFirst() []NodeID {
	if !g.hasRoot {
		return nil
	}
	visited := map[NodeID]bool{g.root: true}
	queue := []NodeID{g.root}
	var out []NodeID
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		out = append(out, current)
		for _, child := range g.nodes[current].Children {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *PathGraph) Clone() *PathGraph {
	cpy := &PathGraph{
		PathID:  g.PathID,
		RunID:   g.RunID,
		Params:  g.Params.clone(),
		root:    g.root,
		hasRoot: g.hasRoot,
		nodes:   make(map[NodeID]*Node, len(g.nodes)),
		order:   append([]NodeID{}, g.order...),
		nextID:  g.nextID,
	}
	for id, n := range g.nodes {
		c := n.clone()
		cpy.nodes[id] = &c
	}
	return cpy
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
