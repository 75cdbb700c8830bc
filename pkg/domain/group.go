package domain

// Group is a party of co-operating actors sharing one path.
// A non-empty group always has exactly one leader.
type Group struct {
	ID string

	members []string
	leader  string
}

// NewGroup creates a group led by leader.
func NewGroup(id, leader string) *Group {
	return &Group{
		ID:      id,
		members: []string{leader},
		leader:  leader,
	}
}

// Leader returns the current leader, or "" for an empty group.
func (g *Group) Leader() string {
	return g.leader
}

// Members returns the members in join order.
func (g *Group) Members() []string {
	return append([]string{}, g.members...)
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.members)
}

// Empty reports whether the group has no members left.
func (g *Group) Empty() bool {
	return len(g.members) == 0
}

// Has reports whether actor is a member.
func (g *Group) Has(actor string) bool {
	for _, m := range g.members {
		if m == actor {
			return true
		}
	}
	return false
}

// Add appends a member.
func (g *Group) Add(actor string) error {
	if g.Has(actor) {
		return ErrAlreadyMember
	}
	g.members = append(g.members, actor)
	if g.leader == "" {
		g.leader = actor
	}
	return nil
}

// Remove drops a member. When the leader leaves, leadership passes to the
// earliest-joined remaining member.
func (g *Group) Remove(actor string) error {
	idx := -1
	for i, m := range g.members {
		if m == actor {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotMember
	}
	g.members = append(g.members[:idx], g.members[idx+1:]...)
	if g.leader == actor {
		g.leader = ""
		if len(g.members) > 0 {
			g.leader = g.members[0]
		}
	}
	return nil
}

// Promote makes an existing member the leader.
func (g *Group) Promote(actor string) error {
	if !g.Has(actor) {
		return ErrNotMember
	}
	g.leader = actor
	return nil
}
