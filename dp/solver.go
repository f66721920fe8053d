package dp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/heuristic"
)

// Solver is the exact subset-DP backend.
type Solver struct {
	maxColors int
	overflow  Overflow
}

// New returns a DP solver with the default color cap and the Refuse policy.
func New(opts ...Option) *Solver {
	s := &Solver{maxColors: DefaultMaxColors, overflow: Refuse}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns "dp".
func (s *Solver) Name() string { return Name }

// ThreadSafe reports true: the solver keeps no state between calls.
func (s *Solver) ThreadSafe() bool { return true }

// MaxColors returns the configured color cap.
func (s *Solver) MaxColors() int { return s.maxColors }

// ComputeTree returns the optimal tree. A graph above the color cap yields
// a *ColorLimitError unless the overflow policy is AttachGreedily.
func (s *Solver) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	rs, err := s.solve(ctx, g, 1, opts)
	if len(rs) == 0 {
		return core.Result{Backend: Name, Outcome: core.OutcomeInfeasible}, err
	}
	return rs[0], err
}

// ComputeMultipleTrees returns up to k distinct trees in descending score
// order. Only the first result is marked optimal. Trees below the floor are
// omitted; if even the best one is below, a single
// OutcomeNoSolutionAboveFloor result is returned.
func (s *Solver) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	return s.solve(ctx, g, k, opts)
}

func (s *Solver) solve(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	start := time.Now()
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadK, k)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", core.ErrInfeasible)
	}
	dl := opts.Deadline(ctx, start)

	// 1. Which colors enter the tables. The cap applies to the input graph.
	keep, greedy, err := s.plan(g)
	if err != nil {
		return nil, err
	}

	// 2. A single exact tree is computed on the graph reduced against the
	// critical-path bound, which also serves as incumbent.
	work, incumbent := g, core.RootOnly(g)
	var red *core.Reduction
	if k == 1 && !greedy {
		if incumbent, err = heuristic.LowerBound(g, nil, dl, opts); err != nil {
			return nil, err
		}
		if red, err = core.Reduce(g, math.Max(opts.MinScore, incumbent.Score())); err != nil {
			return nil, err
		}
		work = red.Graph()
		if keep, _, err = s.plan(work); err != nil {
			return nil, err
		}
	}

	// 3. Fill.
	tb := newTables(work, keep, k, dl)
	if !tb.fill() {
		res, err := core.Conclude(Name, incumbent, false, true, opts, time.Since(start))
		return []core.Result{res}, err
	}

	// 4. Extract, verify and classify.
	var (
		out  []core.Result
		seen = make(map[string]struct{}, k)
	)
	for i, p := range tb.best(k) {
		t, err := core.NewTree(work, tb.backtrack(work.Root(), p.idx, p.rank, nil))
		if err != nil {
			return out, fmt.Errorf("dp: reconstructed tree: %w", err)
		}
		if math.Abs(t.Score()-p.score) > core.ScoreTolerance*math.Max(1, math.Abs(p.score)) {
			return out, fmt.Errorf("%w: dp table says %v, tree scores %v", core.ErrInvalidTree, p.score, t.Score())
		}
		if red != nil {
			if t, err = red.Lift(t); err != nil {
				return out, fmt.Errorf("dp: lifted tree: %w", err)
			}
		}
		if greedy {
			if t, err = heuristic.Extend(g, t); err != nil {
				return out, err
			}
		}
		if _, dup := seen[t.Signature()]; dup {
			continue
		}
		seen[t.Signature()] = struct{}{}

		res, err := core.Conclude(Name, t, i == 0 && !greedy, false, opts, time.Since(start))
		if err != nil {
			return append(out, res), err
		}
		if res.Outcome == core.OutcomeNoSolutionAboveFloor {
			if len(out) == 0 {
				out = append(out, res)
			}
			break
		}
		out = append(out, res)
	}
	if greedy {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	}

	return out, nil
}

// plan decides the kept colors (indexed by dense color index). Above the cap
// it either refuses or keeps the maxColors colors with the best single-edge
// gain w(e) + w(tail).
func (s *Solver) plan(g *core.Graph) (keep []bool, greedy bool, err error) {
	nc := g.NumColors()
	keep = make([]bool, nc)
	nonRoot := nc - 1
	if nonRoot <= s.maxColors {
		for i := range keep {
			keep[i] = true
		}
		return keep, false, nil
	}
	if s.overflow == Refuse {
		return nil, false, &ColorLimitError{Colors: nonRoot, Max: s.maxColors}
	}

	rootColor := g.ColorIndex(g.Root())
	best := make([]float64, nc)
	for i := range best {
		best[i] = math.Inf(-1)
	}
	for e := 0; e < g.NumEdges(); e++ {
		ci := g.ColorIndex(g.Loss(e).Tail)
		if gain := g.Gain(e); gain > best[ci] {
			best[ci] = gain
		}
	}
	order := make([]int, 0, nonRoot)
	for ci := 0; ci < nc; ci++ {
		if ci != rootColor {
			order = append(order, ci)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return best[order[i]] > best[order[j]] })
	for _, ci := range order[:s.maxColors] {
		keep[ci] = true
	}
	keep[rootColor] = true

	return keep, true, nil
}
