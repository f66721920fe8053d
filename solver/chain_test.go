package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/katalvlaran/fragtree/metrics"
	"github.com/katalvlaran/fragtree/milp"
	"github.com/katalvlaran/fragtree/solver"
)

func TestChain_FallsBack(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"too many colors", &dp.ColorLimitError{Colors: 30, Max: 16}},
		{"engine gone", milp.ErrEngineUnavailable},
		{"engine crashed", milp.ErrEngineFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := &stub{name: "first", safe: true, err: tc.err}
			second := &stub{name: "second", safe: true}
			res, err := solver.NewChain(first, second).ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, "second", res.Backend)
			assert.EqualValues(t, 1, first.calls.Load())
		})
	}
}

func TestChain_StopsOnOtherErrors(t *testing.T) {
	first := &stub{name: "first", safe: true, err: errBoom}
	second := &stub{name: "second", safe: true}
	_, err := solver.NewChain(first, second).ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, second.calls.Load())

	last := &stub{name: "last", safe: true, err: milp.ErrEngineUnavailable}
	rs, err := solver.NewChain(last).ComputeMultipleTrees(context.Background(), graphtest.Scenario(), 2, core.DefaultOptions())
	assert.ErrorIs(t, err, milp.ErrEngineUnavailable)
	assert.Len(t, rs, 1)

	_, err = solver.NewChain().ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, solver.ErrNoBackend)
}

func TestChain_ThreadSafe(t *testing.T) {
	assert.True(t, solver.NewChain(&stub{safe: true}, &stub{safe: true}).ThreadSafe())
	assert.False(t, solver.NewChain(&stub{safe: true}, &stub{}).ThreadSafe())
}

// TestRegistryChain_DPColorCap sends a graph above the DP color cap through
// a dp → bnb chain.
func TestRegistryChain_DPColorCap(t *testing.T) {
	c := metrics.NewCollector("fragtree")
	r := solver.DefaultRegistry(
		solver.Defaults{DP: []dp.Option{dp.WithMaxColors(2)}},
		solver.WithPriority(dp.Name, milp.NameBranchAndBound),
		solver.WithMetrics(c),
	)
	chain, err := r.Chain(context.Background())
	require.NoError(t, err)

	g := graphtest.Random(3, 10, 5, 0.3)
	res, err := chain.ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, milp.NameBranchAndBound, res.Backend)
	assert.True(t, res.Optimal)

	want, err := dp.New().ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, want.Score(), res.Score(), 1e-6)

	n, err := testutil.GatherAndCount(c.Registry(), "fragtree_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestRegistryChain_TimeLimit runs the default chain on a graph the bundled
// engine cannot finish within the budget.
func TestRegistryChain_TimeLimit(t *testing.T) {
	missing := func(string) (string, error) { return "", errBoom }
	r := solver.DefaultRegistry(solver.Defaults{
		Gurobi: []milp.CLIOption{milp.WithLookPath(missing)},
		CBC:    []milp.CLIOption{milp.WithLookPath(missing)},
	})
	chain, err := r.Chain(context.Background())
	require.NoError(t, err)

	opts := core.DefaultOptions()
	opts.TimeLimit = 200 * time.Millisecond
	start := time.Now()
	res, err := chain.ComputeTree(context.Background(), graphtest.Random(7, 80, 30, 0.3), opts)
	require.NoError(t, err)
	assert.LessOrEqual(t, time.Since(start), opts.TimeLimit+time.Second)
	assert.Equal(t, milp.NameBranchAndBound, res.Backend)
	require.NotNil(t, res.Tree)
	require.NoError(t, graphtest.CheckTree(res.Tree))
}
