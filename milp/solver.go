package milp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/heuristic"
)

// Solver adapts an Engine to the backend contract.
type Solver struct {
	engine   Engine
	presolve bool
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithoutPresolve hands the engine the full model: no critical-path bound,
// no graph reduction and no warm start beyond the template.
func WithoutPresolve() SolverOption {
	return func(s *Solver) { s.presolve = false }
}

// NewSolver wraps e.
func NewSolver(e Engine, opts ...SolverOption) *Solver {
	s := &Solver{engine: e, presolve: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the engine name.
func (s *Solver) Name() string { return s.engine.Name() }

// ThreadSafe reports the engine's flag.
func (s *Solver) ThreadSafe() bool { return s.engine.ThreadSafe() }

// Probe forwards to the engine.
func (s *Solver) Probe(ctx context.Context) error { return s.engine.Probe(ctx) }

// Engine returns the wrapped engine.
func (s *Solver) Engine() Engine { return s.engine }

// ComputeTree solves the model of g.
func (s *Solver) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return core.Result{Backend: s.Name(), Outcome: core.OutcomeInfeasible}, err
	}
	if g == nil {
		return core.Result{Backend: s.Name(), Outcome: core.OutcomeInfeasible}, fmt.Errorf("%w: nil graph", core.ErrInfeasible)
	}
	o, err := s.once(ctx, g, nil, opts, opts.Deadline(ctx, start))
	if err != nil {
		return core.Result{Backend: s.Name(), Outcome: core.OutcomeInfeasible}, err
	}
	return o.result(s.Name(), opts, time.Since(start))
}

// ComputeMultipleTrees returns the optimum and the distinct optima of the
// models that exclude one of its edges each, best first, at most k. Only the
// first result can be marked optimal.
func (s *Solver) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
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

	// 1. Best tree.
	best, err := s.once(ctx, g, nil, opts, dl)
	if err != nil {
		return nil, err
	}
	if best.tree == nil {
		res, err := best.result(s.Name(), opts, time.Since(start))
		return []core.Result{res}, err
	}
	outs := []outcome{best}
	seen := map[string]struct{}{best.tree.Signature(): {}}

	// 2. Exclusions.
	for _, e := range best.tree.Edges() {
		if len(outs) >= k || best.interrupted || dl.Exceeded() {
			break
		}
		excluded := make([]bool, g.NumEdges())
		excluded[e] = true
		o, err := s.once(ctx, g, excluded, opts, dl)
		if err != nil {
			return nil, err
		}
		if o.tree == nil {
			continue
		}
		if _, dup := seen[o.tree.Signature()]; dup {
			continue
		}
		seen[o.tree.Signature()] = struct{}{}
		o.optimal = false
		outs = append(outs, o)
	}
	sort.SliceStable(outs, func(i, j int) bool { return outs[i].tree.Score() > outs[j].tree.Score() })
	if len(outs) > k {
		outs = outs[:k]
	}

	// 3. Classify.
	out := make([]core.Result, 0, len(outs))
	for _, o := range outs {
		res, err := o.result(s.Name(), opts, time.Since(start))
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
	return out, nil
}

// outcome is the adapter's view of one engine solve.
type outcome struct {
	tree        *core.Tree
	optimal     bool
	interrupted bool
	belowFloor  bool
}

func (o outcome) result(name string, opts core.Options, elapsed time.Duration) (core.Result, error) {
	if o.belowFloor {
		return core.Result{Backend: name, Optimal: true, Outcome: core.OutcomeNoSolutionAboveFloor, Elapsed: elapsed}, nil
	}
	return core.Conclude(name, o.tree, o.optimal, o.interrupted, opts, elapsed)
}

// once solves one model. A critical-path tree avoiding the excluded losses
// bounds the optimum from below: the graph is reduced against it, it warm
// starts the engine and it replaces a weaker incumbent on a time out.
func (s *Solver) once(ctx context.Context, g *core.Graph, excluded []bool, opts core.Options, dl core.Deadline) (outcome, error) {
	// 1. Lower bound and reduction.
	seed, red, err := s.bound(g, excluded, dl, opts)
	if err != nil {
		return outcome{}, err
	}

	// 2. Model and warm start.
	m, err := formulate(red.Graph(), opts, red.ProjectMask(excluded))
	if err != nil {
		return outcome{}, err
	}
	if edges, ok := red.Project(seed.Edges()); ok {
		x := m.Assignment(edges)
		if m.Feasible(x) == nil && (m.Start == nil || m.Objective(x) > m.Objective(m.Start)) {
			m.Start = x
		}
	}

	// 3. Solve.
	sol, err := s.engine.Solve(ctx, m, Params{Deadline: dl, Threads: opts.CPUs()})
	if err != nil {
		return outcome{}, err
	}

	switch sol.Status {
	case StatusInfeasible:
		// The empty selection satisfies every row but the floor.
		if opts.HasFloor() {
			return outcome{belowFloor: true}, nil
		}
		return outcome{}, fmt.Errorf("%w: engine %s reports an infeasible model", core.ErrInfeasible, s.Name())

	case StatusTimeLimit:
		t := seed
		if sol.X != nil {
			found, err := s.check(m, sol)
			if err != nil {
				return outcome{}, err
			}
			if found, err = red.Lift(found); err != nil {
				return outcome{}, err
			}
			if found.Score() > t.Score() {
				t = found
			}
		}
		return outcome{tree: t, interrupted: true}, nil

	case StatusOptimal:
		t, err := s.check(m, sol)
		if err != nil {
			return outcome{}, err
		}
		if t, err = red.Lift(t); err != nil {
			return outcome{}, err
		}
		return outcome{tree: t, optimal: true}, nil
	}
	return outcome{}, fmt.Errorf("%w: engine %s status %v", ErrEngineFailed, s.Name(), sol.Status)
}

// bound returns the incumbent to beat and the graph reduced against it.
func (s *Solver) bound(g *core.Graph, excluded []bool, dl core.Deadline, opts core.Options) (*core.Tree, *core.Reduction, error) {
	if !s.presolve {
		return core.RootOnly(g), core.Unreduced(g), nil
	}
	seed, err := heuristic.LowerBound(g, excluded, dl, opts)
	if err != nil {
		return nil, nil, err
	}
	red, err := core.Reduce(g, math.Max(opts.MinScore, seed.Score()))
	if err != nil {
		return nil, nil, err
	}
	return seed, red, nil
}

// check rounds the engine vector, verifies it against the model and the
// reported objective, and builds the tree.
func (s *Solver) check(m *Model, sol Solution) (*core.Tree, error) {
	x := roundAll(sol.X)
	if err := m.Feasible(x); err != nil {
		return nil, fmt.Errorf("engine %s: %w", s.Name(), err)
	}
	t, err := core.NewTree(m.g, m.Edges(x))
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", s.Name(), err)
	}
	want := sol.Objective + m.Constant
	if math.Abs(t.Score()-want) > 1e-6*math.Max(1, math.Abs(want)) {
		return nil, fmt.Errorf("%w: engine %s reports %v, tree scores %v", ErrSolutionMismatch, s.Name(), want, t.Score())
	}
	return t, nil
}
