// Package party keeps track of groups and their members.
package party

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/google/uuid"
)

// DisbandHook is called after a group loses its last member.
type DisbandHook func(ctx context.Context, groupID string)

// Registry owns every group. An actor belongs to at most one group.
// Safe for concurrent use; hooks run outside the registry lock.
type Registry struct {
	mu      sync.RWMutex
	groups  map[string]*domain.Group
	byActor map[string]string

	hooks  []DisbandHook
	newID  func() string
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithIDs overrides the group id source.
func WithIDs(fn func() string) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		groups:  make(map[string]*domain.Group),
		byActor: make(map[string]string),
		newID:   uuid.NewString,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnDisband registers a hook run when a group is disbanded.
func (r *Registry) OnDisband(h DisbandHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Create forms a new group led by leader.
func (r *Registry) Create(leader string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byActor[leader]; ok {
		return "", domain.ErrAlreadyMember
	}
	id := r.newID()
	r.groups[id] = domain.NewGroup(id, leader)
	r.byActor[leader] = id
	r.logger.Debug("Group created", "group_id", id, "leader", leader)
	return id, nil
}

// Join adds actor to a group.
func (r *Registry) Join(groupID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if _, ok := r.byActor[actor]; ok {
		return domain.ErrAlreadyMember
	}
	if err := g.Add(actor); err != nil {
		return err
	}
	r.byActor[actor] = groupID
	return nil
}

// Leave removes actor from its group. It reports whether the group was disbanded.
func (r *Registry) Leave(ctx context.Context, actor string) (groupID string, disbanded bool, err error) {
	r.mu.Lock()
	groupID, ok := r.byActor[actor]
	if !ok {
		r.mu.Unlock()
		return "", false, domain.ErrNotMember
	}
	g := r.groups[groupID]
	if err := g.Remove(actor); err != nil {
		r.mu.Unlock()
		return groupID, false, err
	}
	delete(r.byActor, actor)
	if g.Empty() {
		delete(r.groups, groupID)
		disbanded = true
	}
	hooks := append([]DisbandHook(nil), r.hooks...)
	r.mu.Unlock()

	if disbanded {
		r.logger.Debug("Group disbanded", "group_id", groupID)
		for _, h := range hooks {
			h(ctx, groupID)
		}
	}
	return groupID, disbanded, nil
}

// Promote hands leadership to another member.
func (r *Registry) Promote(groupID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	return g.Promote(actor)
}

// Members returns a group's members in join order.
func (r *Registry) Members(groupID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return g.Members(), nil
}

// Leader returns a group's leader.
func (r *Registry) Leader(groupID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[groupID]
	if !ok {
		return "", domain.ErrGroupNotFound
	}
	return g.Leader(), nil
}

// GroupOf returns the group an actor belongs to.
func (r *Registry) GroupOf(actor string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byActor[actor]
	return id, ok
}

// Exists reports whether the group exists.
func (r *Registry) Exists(groupID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.groups[groupID]
	return ok
}

// List returns every group id, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.groups))
	for id := range r.groups {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
