package domain

// NodeID identifies a node within a single PathGraph.
// IDs are assigned monotonically by the graph at creation time.
type NodeID int

// Node represents one stage of progression in a path graph.
//
// Node values handed out by a PathGraph are copies. The graph is the only owner
// of the originals; edges are stored as id lists, never as live pointers.
type Node struct {
	ID    NodeID `json:"id" yaml:"id"`
	Level int    `json:"level" yaml:"level"`

	// Special is a gameplay marker drawn at generation time.
	Special bool `json:"special" yaml:"special"`

	// Completed is set by the run coordinator once the group moves past the node.
	Completed bool `json:"completed" yaml:"completed"`

	// RoomID references a RoomDefinition. Empty means unresolved.
	RoomID string `json:"room_id,omitempty" yaml:"room_id,omitempty"`

	Parents  []NodeID `json:"parents" yaml:"parents"`
	Children []NodeID `json:"children" yaml:"children"`
}

// HasRoom reports whether a room has been assigned to the node.
func (n Node) HasRoom() bool {
	return n.RoomID != ""
}

// IsRoot reports whether the node has no parents.
func (n Node) IsRoot() bool {
	return len(n.Parents) == 0
}

// IsTerminal reports whether the node has no children.
func (n Node) IsTerminal() bool {
	return len(n.Children) == 0
}

func (n Node) clone() Node {
	cpy := n
	cpy.Parents = append([]NodeID{}, n.Parents...)
	cpy.Children = append([]NodeID{}, n.Children...)
	return cpy
}

// NodeRef returns a pointer to id, for optional node references in events.
func NodeRef(id NodeID) *NodeID {
	return &id
}
