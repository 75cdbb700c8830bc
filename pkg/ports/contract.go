package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGraphStoreContract runs a suite of tests to verify that a GraphStore implementation
// adheres to the defined interface contract.
func RunGraphStoreContract(t *testing.T, store GraphStore) {
	ctx := context.Background()
	owner := "contract-test-group-" + time.Now().Format("20060102150405")
	doc := []byte(`{"type":"roguepath.graph","version":1,"path_id":"contract"}`)

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, owner, doc), "Save should not return error")

		loaded, err := store.Load(ctx, owner)
		require.NoError(t, err, "Load should not return error")
		assert.JSONEq(t, string(doc), string(loaded))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		next := []byte(`{"type":"roguepath.graph","version":1,"path_id":"contract-2"}`)
		require.NoError(t, store.Save(ctx, owner, next))

		loaded, err := store.Load(ctx, owner)
		require.NoError(t, err)
		assert.JSONEq(t, string(next), string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+owner)
		assert.ErrorIs(t, err, domain.ErrGraphNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, owner, doc))
		require.NoError(t, store.Delete(ctx, owner), "Delete should not return error")

		_, err := store.Load(ctx, owner)
		assert.ErrorIs(t, err, domain.ErrGraphNotFound, "Load after Delete should return ErrGraphNotFound")

		assert.NoError(t, store.Delete(ctx, owner), "Deleting a missing owner is a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := owner + "-1"
		id2 := owner + "-2"
		require.NoError(t, store.Save(ctx, id1, doc))
		require.NoError(t, store.Save(ctx, id2, doc))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		owners, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, owners, id1)
		assert.Contains(t, owners, id2)
	})
}
