package codec_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/roguepath/internal/random"
	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/codec"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/pathgen"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *memory.Catalog {
	return memory.MustCatalog(
		domain.RoomDefinition{ID: "hall", MinFloor: 0, MaxFloor: 10},
		domain.RoomDefinition{ID: "crypt", MinFloor: 1, MaxFloor: 10},
		domain.RoomDefinition{ID: "throne", MinFloor: 3, MaxFloor: 10},
	)
}

func byID(g *domain.PathGraph) map[domain.NodeID]domain.Node {
	out := make(map[domain.NodeID]domain.Node)
	for _, n := range g.Nodes() {
		out[n.ID] = n
	}
	return out
}

func assertSameGraph(t *testing.T, want, got *domain.PathGraph) {
	t.Helper()
	assert.Equal(t, want.PathID, got.PathID)
	assert.Equal(t, want.RunID, got.RunID)
	if diff := cmp.Diff(want.Params, got.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	wantRoot, _ := want.Root()
	gotRoot, ok := got.Root()
	require.True(t, ok)
	assert.Equal(t, wantRoot, gotRoot)
	if diff := cmp.Diff(byID(want), byID(got)); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_GeneratedGraphs(t *testing.T) {
	cat := testCatalog()
	c := codec.New(cat)
	params := domain.GenParams{
		NodeBudget: 25, MaxBranches: 3, MaxHeight: 5, SpecialProbability: 0.4,
		RoomPool: []string{"hall", "crypt"}, BossRoomPool: []string{"throne"}, Environment: "arena-1",
	}

	for seed := uint64(0); seed < 50; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			gen := pathgen.New(cat, pathgen.WithRand(random.New(seed)))
			g, err := gen.Generate(context.Background(), "path", params)
			require.NoError(t, err)
			require.NoError(t, g.MarkCompleted(0))

			doc, err := c.Encode(g)
			require.NoError(t, err)
			decoded, err := c.Decode(doc)
			require.NoError(t, err)
			assertSameGraph(t, g, decoded)
			assert.Equal(t, "arena-1", decoded.Params.Environment)
		})
	}
}

func TestRoundTrip_HandBuiltDiamond(t *testing.T) {
	g := domain.NewPathGraph("p", "r", domain.GenParams{NodeBudget: 4, MaxHeight: 2, RoomPool: []string{"hall"}})
	root := g.AddNode(0, false, "hall")
	a := g.AddNode(1, true, "crypt")
	b := g.AddNode(1, false, "hall")
	end := g.AddNode(2, false, "")
	require.NoError(t, g.Link(root, b))
	require.NoError(t, g.Link(root, a))
	require.NoError(t, g.Link(b, end))
	require.NoError(t, g.Link(a, end))

	c := codec.New(nil)
	doc, err := c.Encode(g)
	require.NoError(t, err)
	decoded, err := c.Decode(doc)
	require.NoError(t, err)

	assertSameGraph(t, g, decoded)
	assert.Equal(t, []domain.NodeID{b, a}, decoded.Children(root), "child order is preserved")
	assert.Equal(t, []domain.NodeID{b, a}, decoded.Parents(end), "parent order is preserved")
}

func TestEncode_OmitsUnreachableNodes(t *testing.T) {
	g := domain.NewPathGraph("p", "r", domain.GenParams{})
	g.AddNode(0, false, "hall")
	g.AddNode(1, false, "hall")

	c := codec.New(nil)
	doc, err := c.Encode(g)
	require.NoError(t, err)
	decoded, err := c.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Len())
}

func TestDecode_RepairsUnknownRooms(t *testing.T) {
	doc := `{"type":"roguepath.graph","version":1,"path_id":"p","run_id":"r",
		"params":{"node_budget":2,"max_branches":1,"max_height":2,"special_probability":0,"room_pool":["hall"]},
		"nodes":[
			{"id":0,"level":0,"special":false,"completed":true,"room_id":"ghost","parent_ids":[],"child_ids":[1]},
			{"id":1,"level":1,"special":false,"completed":false,"room_id":"crypt","parent_ids":[0],"child_ids":[]}
		]}`

	g, err := codec.New(testCatalog()).Decode([]byte(doc))
	require.NoError(t, err)

	root, _ := g.Node(0)
	assert.Equal(t, "hall", root.RoomID)
	assert.True(t, root.Completed)
	child, _ := g.Node(1)
	assert.Equal(t, "crypt", child.RoomID, "known rooms are kept even outside the pool")
}

func TestDecode_IntegrityErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"type":`},
		{"trailing data", `{"type":"roguepath.graph","version":1,"nodes":[{"id":0,"level":0}]} {}`},
		{"wrong type", `{"type":"other","version":1,"nodes":[{"id":0,"level":0}]}`},
		{"missing version", `{"type":"roguepath.graph","nodes":[{"id":0,"level":0}]}`},
		{"future version", `{"type":"roguepath.graph","version":9,"nodes":[{"id":0,"level":0}]}`},
		{"no nodes", `{"type":"roguepath.graph","version":1,"nodes":[]}`},
		{"missing id", `{"type":"roguepath.graph","version":1,"nodes":[{"level":0}]}`},
		{"missing level", `{"type":"roguepath.graph","version":1,"nodes":[{"id":0}]}`},
		{"non numeric id", `{"type":"roguepath.graph","version":1,"nodes":[{"id":"zero","level":0}]}`},
		{"duplicate id", `{"type":"roguepath.graph","version":1,"nodes":[{"id":0,"level":0},{"id":0,"level":1}]}`},
		{"dangling parent", `{"type":"roguepath.graph","version":1,"nodes":[
			{"id":0,"level":0,"parent_ids":[],"child_ids":[]},
			{"id":1,"level":1,"parent_ids":[7],"child_ids":[]}]}`},
		{"edge against levels", `{"type":"roguepath.graph","version":1,"nodes":[
			{"id":0,"level":1,"parent_ids":[],"child_ids":[1]},
			{"id":1,"level":1,"parent_ids":[0],"child_ids":[]}]}`},
		{"child ids disagree", `{"type":"roguepath.graph","version":1,"nodes":[
			{"id":0,"level":0,"parent_ids":[],"child_ids":[]},
			{"id":1,"level":1,"parent_ids":[0],"child_ids":[]}]}`},
		{"two roots", `{"type":"roguepath.graph","version":1,"nodes":[
			{"id":0,"level":0,"parent_ids":[],"child_ids":[]},
			{"id":1,"level":0,"parent_ids":[],"child_ids":[]}]}`},
	}

	c := codec.New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode([]byte(tt.doc))
			var gie *domain.GraphIntegrityError
			require.ErrorAs(t, err, &gie)
			assert.Equal(t, tt.doc, string(gie.Document), "original document is preserved")
			assert.NotEmpty(t, gie.Reason)
		})
	}
}
