package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/roguepath/pkg/domain"
)

// Store implements ports.GraphStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists a copy of the document.
func (s *Store) Save(ctx context.Context, owner string, doc []byte) error {
	cpy := append([]byte(nil), doc...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[owner] = cpy
	return nil
}

// Load retrieves a copy of the document.
func (s *Store) Load(ctx context.Context, owner string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[owner]
	if !ok {
		return nil, domain.ErrGraphNotFound
	}
	return append([]byte(nil), doc...), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, owner)
	return nil
}

// List returns the owners with a stored document, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.data))
	for id := range s.data {
		owners = append(owners, id)
	}
	sort.Strings(owners)
	return owners, nil
}
