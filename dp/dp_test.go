package dp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, g *core.Graph) core.Result {
	t.Helper()
	res, err := dp.New().ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, core.OutcomeComputedCorrectly, res.Outcome)
	require.NoError(t, graphtest.CheckTree(res.Tree))
	return res
}

func TestFixtures(t *testing.T) {
	cases := []struct {
		name string
		g    *core.Graph
		want float64
		size int
	}{
		{"scenario", graphtest.Scenario(), 7, 2},
		{"decoy", graphtest.Decoy(), 7, 2},
		{"negative vertex", graphtest.NegativeVertex(), 8, 3},
		{"diamond", graphtest.Diamond(), 12, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := solve(t, tc.g)
			assert.True(t, res.Optimal)
			assert.Equal(t, dp.Name, res.Backend)
			assert.InDelta(t, tc.want, res.Score(), 1e-9)
			assert.Equal(t, tc.size, res.Tree.Size())
		})
	}
}

func TestNegativeVertexExcluded(t *testing.T) {
	g := graphtest.NegativeVertex()
	res := solve(t, g)
	for _, v := range res.Tree.Vertices() {
		assert.Greater(t, g.VertexWeight(v), -10.0)
	}
}

func TestMatchesBruteForce(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		g := graphtest.Random(seed, 9, 5, 0.35)
		res := solve(t, g)
		assert.InDelta(t, graphtest.BruteForce(g), res.Score(), 1e-9, "seed %d", seed)
	}
}

func TestMultipleTrees(t *testing.T) {
	g := graphtest.Random(3, 14, 6, 0.4)
	rs, err := dp.New().ComputeMultipleTrees(context.Background(), g, 6, core.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, rs, 6)

	seen := map[string]bool{}
	for i, r := range rs {
		require.NoError(t, graphtest.CheckTree(r.Tree))
		assert.Equal(t, i == 0, r.Optimal, "only the first tree is marked optimal")
		assert.False(t, seen[r.Tree.Signature()], "duplicate tree %d", i)
		seen[r.Tree.Signature()] = true
		if i > 0 {
			assert.LessOrEqual(t, r.Score(), rs[i-1].Score()+1e-9)
		}
	}
	single := solve(t, g)
	assert.InDelta(t, single.Score(), rs[0].Score(), 1e-9)

	_, err = dp.New().ComputeMultipleTrees(context.Background(), g, 0, core.DefaultOptions())
	assert.ErrorIs(t, err, dp.ErrBadK)
}

func TestFloor(t *testing.T) {
	opts := core.DefaultOptions()
	opts.MinScore = 7.5
	res, err := dp.New().ComputeTree(context.Background(), graphtest.Scenario(), opts)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeNoSolutionAboveFloor, res.Outcome)
	assert.Nil(t, res.Tree)

	opts.MinScore = 7
	res, err = dp.New().ComputeTree(context.Background(), graphtest.Scenario(), opts)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeComputedCorrectly, res.Outcome)

	// Trees below the floor are dropped from the list.
	opts.MinScore = 5
	rs, err := dp.New().ComputeMultipleTrees(context.Background(), graphtest.Scenario(), 3, opts)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.InDelta(t, 7.0, rs[0].Score(), 1e-9)
}

func TestColorLimit(t *testing.T) {
	g := graphtest.Random(8, 30, 12, 0.2)
	require.Greater(t, g.NumColors()-1, 6)

	_, err := dp.New(dp.WithMaxColors(6)).ComputeTree(context.Background(), g, core.DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, dp.ErrTooManyColors)
	var cle *dp.ColorLimitError
	require.True(t, errors.As(err, &cle))
	assert.Equal(t, 6, cle.Max)
	assert.Equal(t, g.NumColors()-1, cle.Colors)
}

func TestAttachGreedily(t *testing.T) {
	g := graphtest.Random(8, 30, 12, 0.2)
	s := dp.New(dp.WithMaxColors(6), dp.WithOverflow(dp.AttachGreedily))
	res, err := s.ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, graphtest.CheckTree(res.Tree))
	assert.False(t, res.Optimal)
	assert.Equal(t, core.OutcomeComputedCorrectly, res.Outcome)

	exact := solve(t, g)
	assert.LessOrEqual(t, res.Score(), exact.Score()+1e-9)
}

func TestWithMaxColorsClamps(t *testing.T) {
	assert.Equal(t, 1, dp.New(dp.WithMaxColors(0)).MaxColors())
	assert.Equal(t, 24, dp.New(dp.WithMaxColors(99)).MaxColors())
	assert.Equal(t, dp.DefaultMaxColors, dp.New().MaxColors())
}

func TestDeterministic(t *testing.T) {
	g := graphtest.Random(21, 30, 10, 0.3)
	a := solve(t, g)
	b := solve(t, g)
	assert.Equal(t, a.Tree.Signature(), b.Tree.Signature())
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := graphtest.Random(2, 200, 14, 0.3)
	res, err := dp.New().ComputeTree(ctx, g, core.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeTimedOut, res.Outcome)
	assert.False(t, res.Optimal)
	require.NotNil(t, res.Tree)
	assert.Equal(t, 1, res.Tree.Size())
}

func TestNilGraph(t *testing.T) {
	res, err := dp.New().ComputeTree(context.Background(), nil, core.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrInfeasible)
	assert.Equal(t, core.OutcomeInfeasible, res.Outcome)
}
