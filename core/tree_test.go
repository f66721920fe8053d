package core_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewTree_Scenario builds {root, A} by hand and checks the accessors.
func TestNewTree_Scenario(t *testing.T) {
	g := graphtest.Scenario()
	e, ok := g.FindLoss(0, 1)
	require.True(t, ok)

	tr, err := core.NewTree(g, []int{e})
	require.NoError(t, err)

	assert.InDelta(t, 7.0, tr.Score(), 1e-12)
	assert.Equal(t, 2, tr.Size())
	assert.Equal(t, []int{0, 1}, tr.Vertices())
	assert.True(t, tr.Contains(1))
	assert.False(t, tr.Contains(2))
	assert.False(t, tr.Contains(99))
	p, ok := tr.Parent(1)
	require.True(t, ok)
	assert.Equal(t, 0, p)
	_, ok = tr.Parent(0)
	assert.False(t, ok, "the root has no parent")
	assert.Equal(t, []int{1}, tr.Children(0))
	assert.NoError(t, tr.Validate())
	assert.NoError(t, graphtest.CheckTree(tr))
}

// TestNewTree_Rejects covers each tree invariant.
func TestNewTree_Rejects(t *testing.T) {
	g := graphtest.Scenario()
	_, err := core.NewTree(g, []int{0, 1})
	assert.ErrorIs(t, err, core.ErrInvalidTree, "A and B share a color")

	_, err = core.NewTree(g, []int{0, 0})
	assert.ErrorIs(t, err, core.ErrInvalidTree, "duplicate edge gives two parents")

	_, err = core.NewTree(g, []int{5})
	assert.ErrorIs(t, err, core.ErrInvalidTree)

	_, err = core.NewTree(nil, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTree)

	n := graphtest.NegativeVertex()
	nm, ok := n.FindLoss(2, 3)
	require.True(t, ok)
	_, err = core.NewTree(n, []int{nm})
	assert.ErrorIs(t, err, core.ErrInvalidTree, "edge hanging from a vertex outside the tree")
}

// TestTree_RootOnlyAndSignature checks the trivial tree and edge-set identity.
func TestTree_RootOnlyAndSignature(t *testing.T) {
	g := graphtest.NegativeVertex()
	r := core.RootOnly(g)
	assert.Equal(t, 1, r.Size())
	assert.Equal(t, "", r.Signature())
	assert.Equal(t, g.VertexWeight(0), r.Score())

	a, _ := g.FindLoss(0, 1)
	c, _ := g.FindLoss(0, 4)
	t1, err := core.NewTree(g, []int{c, a})
	require.NoError(t, err)
	t2, err := core.NewTree(g, []int{a, c})
	require.NoError(t, err)
	assert.Equal(t, t1.Signature(), t2.Signature())
	if diff := cmp.Diff(t1.Edges(), t2.Edges()); diff != "" {
		t.Errorf("edge order not canonical (-t1 +t2):\n%s", diff)
	}
	assert.InDelta(t, 8.0, t1.Score(), 1e-12)
	assert.Contains(t, t1.String(), "0→1")
}

// TestTree_Breakdown verifies that attaching a breakdown leaves the score alone.
func TestTree_Breakdown(t *testing.T) {
	g := graphtest.Scenario()
	tr, err := core.NewTree(g, []int{0})
	require.NoError(t, err)
	assert.Nil(t, tr.Breakdown())

	b := core.NewScoreBreakdown(tr, []string{"x", "y"})
	b.VertexScores[0][1] = 4
	b.EdgeScores[0][0] = 1.5
	tr.SetBreakdown(b)

	require.Same(t, b, tr.Breakdown())
	total, ok := b.Total("x")
	require.True(t, ok)
	assert.InDelta(t, 5.5, total, 1e-12)
	v, ok := b.Vertex("x", 1)
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
	ev, ok := b.Edge("x", 0)
	require.True(t, ok)
	assert.Equal(t, 1.5, ev)
	_, ok = b.Total("missing")
	assert.False(t, ok)
	assert.InDelta(t, 7.0, tr.Score(), 1e-12)
}
