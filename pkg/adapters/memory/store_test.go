package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunGraphStoreContract(t, store)
}

func TestMemoryStore_CopiesDocuments(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	doc := []byte(`{"a":1}`)
	require.NoError(t, store.Save(ctx, "g1", doc))
	doc[2] = 'b'

	loaded, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(loaded))
}

func TestCatalog(t *testing.T) {
	c, err := memory.NewCatalog(
		domain.RoomDefinition{ID: "b", MinFloor: 0, MaxFloor: 2},
		domain.RoomDefinition{ID: "a", MinFloor: 1, MaxFloor: 1},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, c.IDs())

	r, ok := c.Room("a")
	assert.True(t, ok)
	assert.Equal(t, 1, r.MinFloor)

	_, ok = c.Room("missing")
	assert.False(t, ok)

	_, err = memory.NewCatalog(domain.RoomDefinition{ID: "a"}, domain.RoomDefinition{ID: "a"})
	assert.Error(t, err)
}
