package dsl_test

import (
	"testing"

	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Diamond(t *testing.T) {
	b := dsl.New("tutorial").RunID("run-1").Params(domain.GenParams{NodeBudget: 4, MaxHeight: 3})

	entrance := b.Root("entrance")
	left := entrance.Then("crypt")
	right := entrance.Then("library").Special()
	boss := b.Join("throne", left, right)

	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "tutorial", g.PathID)
	assert.Equal(t, "run-1", g.RunID)
	assert.Equal(t, 4, g.Params.NodeBudget)
	assert.Equal(t, 4, g.Len())

	root, ok := g.Root()
	require.True(t, ok)
	assert.Equal(t, entrance.ID(), root)
	assert.Equal(t, []domain.NodeID{left.ID(), right.ID()}, g.Children(root))
	assert.ElementsMatch(t, []domain.NodeID{left.ID(), right.ID()}, g.Parents(boss.ID()))

	n, _ := g.Node(right.ID())
	assert.True(t, n.Special)
	assert.Equal(t, "library", n.RoomID)

	throne, _ := g.Node(boss.ID())
	assert.Equal(t, 2, throne.Level)
}

func TestBuilder_LinkAndCompleted(t *testing.T) {
	b := dsl.New("p")
	root := b.Root("a").Completed()
	mid := b.Node(1, "")
	end := b.Node(3, "c")
	root.Link(mid)
	mid.Link(end)

	g, err := b.Build()
	require.NoError(t, err)

	n, _ := g.Node(root.ID())
	assert.True(t, n.Completed)
	assert.Equal(t, []domain.NodeID{mid.ID()}, g.Unresolved())
	assert.True(t, g.HasEdge(mid.ID(), end.ID()))
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := dsl.New("p").Build()
		assert.Error(t, err)
	})

	t.Run("root not first", func(t *testing.T) {
		b := dsl.New("p")
		b.Root("a")
		b.Root("b")
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("first node above level zero", func(t *testing.T) {
		b := dsl.New("p")
		b.Node(2, "a")
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("downward edge", func(t *testing.T) {
		b := dsl.New("p")
		root := b.Root("a")
		child := root.Then("b")
		child.Link(root)
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("foreign builder", func(t *testing.T) {
		b1, b2 := dsl.New("p"), dsl.New("q")
		b1.Root("a").Link(b2.Root("b"))
		_, err := b1.Build()
		assert.Error(t, err)
	})

	t.Run("join without parents", func(t *testing.T) {
		b := dsl.New("p")
		b.Join("x")
		_, err := b.Build()
		assert.Error(t, err)
	})
}
