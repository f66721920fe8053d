package heuristic_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/heuristic"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend interface {
	Name() string
	ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error)
	ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error)
}

func all() []backend {
	return []backend{
		heuristic.NewCriticalPath(),
		heuristic.NewPrim(heuristic.PrimEdge),
		heuristic.NewPrim(heuristic.PrimStar),
		heuristic.NewInsertion(),
	}
}

func TestNames(t *testing.T) {
	var names []string
	for _, h := range all() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{"critical-path", "prim-edge", "prim-star", "insertion"}, names)
}

// TestScenario checks that every heuristic prefers A over B and never
// claims optimality.
func TestScenario(t *testing.T) {
	g := graphtest.Scenario()
	for _, h := range all() {
		t.Run(h.Name(), func(t *testing.T) {
			res, err := h.ComputeTree(context.Background(), g, core.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, core.OutcomeComputedCorrectly, res.Outcome)
			assert.Equal(t, h.Name(), res.Backend)
			assert.False(t, res.Optimal)
			assert.InDelta(t, 7.0, res.Score(), 1e-9)
		})
	}
}

// TestNegativeVertex checks that the negative vertex is cut even though a
// positive vertex hangs below it.
func TestNegativeVertex(t *testing.T) {
	g := graphtest.NegativeVertex()
	for _, h := range all() {
		t.Run(h.Name(), func(t *testing.T) {
			res, err := h.ComputeTree(context.Background(), g, core.DefaultOptions())
			require.NoError(t, err)
			assert.InDelta(t, 8.0, res.Score(), 1e-9)
			for _, v := range res.Tree.Vertices() {
				assert.NotEqual(t, -10.0, g.VertexWeight(v))
			}
		})
	}
}

// TestRandomGraphs checks validity and the exact bound on seeded DAGs.
func TestRandomGraphs(t *testing.T) {
	exact := dp.New()
	for seed := int64(1); seed <= 20; seed++ {
		g := graphtest.Random(seed, 30, 8, 0.2)
		opt, err := exact.ComputeTree(context.Background(), g, core.DefaultOptions())
		require.NoError(t, err)
		for _, h := range all() {
			res, err := h.ComputeTree(context.Background(), g, core.DefaultOptions())
			require.NoError(t, err, "%s seed %d", h.Name(), seed)
			require.NoError(t, graphtest.CheckTree(res.Tree), "%s seed %d", h.Name(), seed)
			assert.LessOrEqual(t, res.Score(), opt.Score()+1e-9, "%s seed %d", h.Name(), seed)
			assert.GreaterOrEqual(t, res.Score(), g.VertexWeight(g.Root())-1e-9, "%s seed %d", h.Name(), seed)
		}
	}
}

func TestDeterministic(t *testing.T) {
	g := graphtest.Random(11, 40, 10, 0.25)
	opts := core.DefaultOptions()
	opts.Seed = 42
	for _, h := range all() {
		a, err := h.ComputeTree(context.Background(), g, opts)
		require.NoError(t, err)
		b, err := h.ComputeTree(context.Background(), g, opts)
		require.NoError(t, err)
		assert.Equal(t, a.Tree.Signature(), b.Tree.Signature(), h.Name())
	}
}

func TestMultipleTrees(t *testing.T) {
	g := graphtest.Random(5, 30, 8, 0.3)
	for _, h := range all() {
		t.Run(h.Name(), func(t *testing.T) {
			rs, err := h.ComputeMultipleTrees(context.Background(), g, 3, core.DefaultOptions())
			require.NoError(t, err)
			require.NotEmpty(t, rs)
			assert.LessOrEqual(t, len(rs), 3)
			seen := map[string]bool{}
			for i, r := range rs {
				require.NoError(t, graphtest.CheckTree(r.Tree))
				assert.False(t, seen[r.Tree.Signature()], "duplicate tree %d", i)
				seen[r.Tree.Signature()] = true
				if i > 0 {
					assert.LessOrEqual(t, r.Score(), rs[i-1].Score())
				}
			}
		})
	}
}

func TestBadK(t *testing.T) {
	for _, h := range all() {
		_, err := h.ComputeMultipleTrees(context.Background(), graphtest.Scenario(), 0, core.DefaultOptions())
		assert.ErrorIs(t, err, heuristic.ErrBadK)
	}
}

func TestFloor(t *testing.T) {
	opts := core.DefaultOptions()
	opts.MinScore = 100
	for _, h := range all() {
		res, err := h.ComputeTree(context.Background(), graphtest.Scenario(), opts)
		require.NoError(t, err)
		assert.Equal(t, core.OutcomeNoSolutionAboveFloor, res.Outcome)
		assert.Nil(t, res.Tree)

		rs, err := h.ComputeMultipleTrees(context.Background(), graphtest.Scenario(), 2, opts)
		require.NoError(t, err)
		require.Len(t, rs, 1)
		assert.Equal(t, core.OutcomeNoSolutionAboveFloor, rs[0].Outcome)
	}
}

// TestCancelled checks that a done context yields the incumbent with
// OutcomeTimedOut for the round-based heuristics.
func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, h := range []backend{heuristic.NewCriticalPath(), heuristic.NewInsertion()} {
		res, err := h.ComputeTree(ctx, graphtest.Scenario(), core.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, core.OutcomeTimedOut, res.Outcome, h.Name())
		require.NotNil(t, res.Tree)
		assert.Equal(t, 1, res.Tree.Size())
	}
}

func TestNilGraphAndBadOptions(t *testing.T) {
	for _, h := range all() {
		res, err := h.ComputeTree(context.Background(), nil, core.DefaultOptions())
		assert.ErrorIs(t, err, core.ErrInfeasible)
		assert.Equal(t, core.OutcomeInfeasible, res.Outcome)

		_, err = h.ComputeTree(context.Background(), graphtest.Scenario(), core.Options{TimeLimit: -1})
		assert.ErrorIs(t, err, core.ErrBadOptions)
	}
}

func TestElapsedAccumulates(t *testing.T) {
	h := heuristic.NewInsertion()
	g := graphtest.Random(3, 60, 12, 0.3)
	_, err := h.ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	first := h.Elapsed()
	_, err = h.ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, h.Elapsed(), first)
}

// TestTemplate seeds the heuristics with the optimal diamond tree, which a
// cold greedy start can miss.
func TestTemplate(t *testing.T) {
	g := graphtest.Diamond()
	opt, err := dp.New().ComputeTree(context.Background(), g, core.DefaultOptions())
	require.NoError(t, err)
	require.InDelta(t, 12.0, opt.Score(), 1e-9)

	opts := core.DefaultOptions()
	opts.Template = opt.Tree
	for _, h := range []backend{heuristic.NewCriticalPath(), heuristic.NewInsertion()} {
		res, err := h.ComputeTree(context.Background(), g, opts)
		require.NoError(t, err)
		assert.InDelta(t, 12.0, res.Score(), 1e-9, h.Name())
	}
}

func TestExtend(t *testing.T) {
	g := graphtest.Scenario()
	ext, err := heuristic.Extend(g, core.RootOnly(g))
	require.NoError(t, err)
	assert.InDelta(t, 7.0, ext.Score(), 1e-9)

	for seed := int64(1); seed <= 10; seed++ {
		g := graphtest.Random(seed, 25, 6, 0.3)
		res, err := heuristic.NewCriticalPath().ComputeTree(context.Background(), g, core.DefaultOptions())
		require.NoError(t, err)
		ext, err := heuristic.Extend(g, res.Tree)
		require.NoError(t, err)
		require.NoError(t, graphtest.CheckTree(ext))
		assert.GreaterOrEqual(t, ext.Score(), res.Score()-1e-9)
	}
}
