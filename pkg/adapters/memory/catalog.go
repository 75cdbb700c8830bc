package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/roguepath/pkg/domain"
)

// Catalog implements ports.RoomCatalog using an in-memory map.
type Catalog struct {
	rooms map[string]domain.RoomDefinition
}

// NewCatalog creates a catalog from room definitions.
func NewCatalog(rooms ...domain.RoomDefinition) (*Catalog, error) {
	c := &Catalog{rooms: make(map[string]domain.RoomDefinition, len(rooms))}
	for _, r := range rooms {
		if r.ID == "" {
			return nil, fmt.Errorf("room missing ID")
		}
		if _, dup := c.rooms[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room %s", r.ID)
		}
		c.rooms[r.ID] = r
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error. Intended for tests and fixtures.
func MustCatalog(rooms ...domain.RoomDefinition) *Catalog {
	c, err := NewCatalog(rooms...)
	if err != nil {
		panic(err)
	}
	return c
}

// Room looks up a definition by id.
func (c *Catalog) Room(id string) (domain.RoomDefinition, bool) {
	r, ok := c.rooms[id]
	return r, ok
}

// IDs returns all room ids, sorted.
func (c *Catalog) IDs() []string {
	keys := make([]string, 0, len(c.rooms))
	for k := range c.rooms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
