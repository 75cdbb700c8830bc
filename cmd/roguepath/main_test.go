package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/roguepath/internal/config"
	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
version: 1
rooms:
  - {id: hall, min_floor: 0, max_floor: 9, time_limit: 30, base_score: 10}
  - {id: vault, min_floor: 2, max_floor: 9, time_limit: 1m, base_score: 40}
generation:
  kind: linear
  node_budget: 4
  max_height: 4
  room_pool: [hall, vault]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "rooms.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o644))
	docPath := filepath.Join(dir, "path.json")

	_, err := execute(t, "generate", "tutorial", "-c", catalogPath, "--seed", "11", "-o", docPath)
	require.NoError(t, err)
	doc, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"tutorial"`)

	out, err := execute(t, "graph", docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "n0")

	out, err = execute(t, "validate", "-c", catalogPath, docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is valid: 2 rooms")
	assert.Contains(t, out, "ok (4 nodes)")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"type":"path_graph"}`), 0o644))
	out, err = execute(t, "validate", "-c", catalogPath, broken)
	assert.Error(t, err)
	assert.Contains(t, out, "broken.json")

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "roguepath version dev")
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"memory", config.Config{Store: config.StoreMemory}},
		{"file", config.Config{Store: config.StoreFile, StoreDir: t.TempDir()}},
		{"sqlite", config.Config{Store: config.StoreSQLite, StoreDSN: ":memory:"}},
		{"encrypted", config.Config{Store: config.StoreMemory, StoreKey: strings.Repeat("5a", 32)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be, err := openBackend(ctx, tt.cfg, logger)
			require.NoError(t, err)
			defer be.close()
			assert.Nil(t, be.locker)

			require.NoError(t, be.store.Save(ctx, "g1", []byte(`{}`)))
			got, err := be.store.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{}`), got)
			_, err = be.store.Load(ctx, "g2")
			assert.ErrorIs(t, err, domain.ErrGraphNotFound)
		})
	}

	_, err := openBackend(ctx, config.Config{Store: "tape"}, logger)
	assert.Error(t, err)
}
