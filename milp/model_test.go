package milp_test

import (
	"bytes"
	"testing"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/katalvlaran/fragtree/milp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulate_Scenario(t *testing.T) {
	g := graphtest.Scenario()
	m, err := milp.Formulate(g, core.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumCols())
	assert.Equal(t, []float64{7, 4}, m.Cost)
	assert.Equal(t, 0.0, m.Constant)
	require.Len(t, m.Rows, 1, "one color row, no tree rows below the root")
	assert.Nil(t, m.Start)

	assert.NoError(t, m.Feasible([]float64{1, 0}))
	assert.NoError(t, m.Feasible([]float64{0, 0}))
	assert.ErrorIs(t, m.Feasible([]float64{1, 1}), milp.ErrSolutionMismatch)
	assert.ErrorIs(t, m.Feasible([]float64{0.5, 0}), milp.ErrSolutionMismatch)
	assert.ErrorIs(t, m.Feasible([]float64{1}), milp.ErrSolutionMismatch)
	assert.Equal(t, 7.0, m.Objective([]float64{1, 0}))
	assert.Equal(t, []int{0}, m.Edges([]float64{1, 0}))
}

// TestFormulate_TreeRows checks that a child cannot be selected without its
// parent.
func TestFormulate_TreeRows(t *testing.T) {
	g := graphtest.NegativeVertex()
	m, err := milp.Formulate(g, core.DefaultOptions())
	require.NoError(t, err)

	an, ok := g.FindLoss(1, 2)
	require.True(t, ok)
	x := make([]float64, m.NumCols())
	x[an] = 1
	assert.ErrorIs(t, m.Feasible(x), milp.ErrSolutionMismatch)

	ra, ok := g.FindLoss(0, 1)
	require.True(t, ok)
	x[ra] = 1
	assert.NoError(t, m.Feasible(x))
}

func TestFormulate_FloorAndStart(t *testing.T) {
	g := graphtest.Scenario()
	tmpl, err := core.NewTree(g, []int{1})
	require.NoError(t, err)

	opts := core.DefaultOptions()
	opts.MinScore = 5
	opts.Template = tmpl
	m, err := milp.Formulate(g, opts)
	require.NoError(t, err)
	assert.Len(t, m.Rows, 2)
	assert.ErrorIs(t, m.Feasible([]float64{0, 1}), milp.ErrSolutionMismatch, "4 is below the floor")
	assert.NoError(t, m.Feasible([]float64{1, 0}))
	assert.Nil(t, m.Start, "the template violates the floor")

	opts.MinScore = 3
	m, err = milp.Formulate(g, opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, m.Start)
}

func TestFormulate_Errors(t *testing.T) {
	_, err := milp.Formulate(nil, core.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrInfeasible)
	_, err = milp.Formulate(graphtest.Scenario(), core.Options{Threads: -1})
	assert.ErrorIs(t, err, core.ErrBadOptions)
}

func TestWriteLP(t *testing.T) {
	m, err := milp.Formulate(graphtest.Scenario(), core.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, milp.WriteLP(&buf, m))
	want := `\ fragtree colorful subtree model
Maximize
 obj: + 7 x0 + 4 x1
Subject To
 c1: + 1 x0 + 1 x1 <= 1
Bounds
 0 <= x0 <= 1
 0 <= x1 <= 1
Binary
 x0
 x1
End
`
	assert.Equal(t, want, buf.String())
}

func TestWriteLP_NegativeAndFloor(t *testing.T) {
	opts := core.DefaultOptions()
	opts.MinScore = 1
	m, err := milp.Formulate(graphtest.NegativeVertex(), opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, milp.WriteLP(&buf, m))
	out := buf.String()
	assert.Contains(t, out, " - 9 x")
	assert.Contains(t, out, " floor:")
	assert.Contains(t, out, " t")
}
