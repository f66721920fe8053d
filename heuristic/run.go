package heuristic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/katalvlaran/fragtree/core"
)

// growFunc builds one tree avoiding the excluded edges and reports whether
// the deadline interrupted it.
type growFunc func(g *core.Graph, excluded []bool, dl core.Deadline, opts core.Options) (*core.Tree, bool, error)

func computeTree(ctx context.Context, name string, tm *timer, grow growFunc, g *core.Graph, opts core.Options) (core.Result, error) {
	start := time.Now()
	defer func() { tm.add(time.Since(start)) }()
	if err := opts.Validate(); err != nil {
		return core.Result{Backend: name, Outcome: core.OutcomeInfeasible}, err
	}
	if g == nil {
		return core.Result{Backend: name, Outcome: core.OutcomeInfeasible}, fmt.Errorf("%w: nil graph", core.ErrInfeasible)
	}
	t, interrupted, err := grow(g, nil, opts.Deadline(ctx, start), opts)
	if err != nil {
		return core.Result{Backend: name, Outcome: core.OutcomeInfeasible}, err
	}
	return core.Conclude(name, t, false, interrupted, opts, time.Since(start))
}

// computeMultipleTrees returns the best tree and the distinct trees obtained
// by excluding each of its edges in turn, best first, at most k.
func computeMultipleTrees(ctx context.Context, name string, tm *timer, grow growFunc, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	start := time.Now()
	defer func() { tm.add(time.Since(start)) }()
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
	best, interrupted, err := grow(g, nil, dl, opts)
	if err != nil {
		return nil, err
	}
	trees := []*core.Tree{best}
	seen := map[string]struct{}{best.Signature(): {}}

	// 2. One exclusion per edge of the best tree.
	if k > 1 {
		for _, e := range best.Edges() {
			if dl.Exceeded() {
				interrupted = true
				break
			}
			excluded := make([]bool, g.NumEdges())
			excluded[e] = true
			t, stop, err := grow(g, excluded, dl, opts)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[t.Signature()]; !dup {
				seen[t.Signature()] = struct{}{}
				trees = append(trees, t)
			}
			if stop {
				interrupted = true
				break
			}
		}
	}
	sort.SliceStable(trees, func(i, j int) bool { return trees[i].Score() > trees[j].Score() })
	if len(trees) > k {
		trees = trees[:k]
	}

	// 3. Classify.
	out := make([]core.Result, 0, len(trees))
	for _, t := range trees {
		res, err := core.Conclude(name, t, false, interrupted, opts, time.Since(start))
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
