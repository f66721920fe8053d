package core

import (
	"fmt"
	"math"
)

// Reduction is a graph stripped of the losses that no tree worth computing
// can use, together with the maps back to the input graph.
type Reduction struct {
	src     *Graph
	reduced *Graph
	edges   []int // reduced loss → loss of src
	index   []int // loss of src → reduced loss, -1 when deleted
	upper   float64
}

// VertexUpperBounds returns, per vertex v, an upper bound on the score the
// subtree below v can add: for each child color, the best w(e) + w(tail) +
// ub(tail) over the losses leaving v, counted only when positive.
//
// Complexity: O(V + E).
func VertexUpperBounds(g *Graph) []float64 {
	return vertexUpperBounds(g, nil, nil)
}

// vertexUpperBounds restricts the bound to kept losses out of alive vertices.
func vertexUpperBounds(g *Graph, keep, alive []bool) []float64 {
	n := g.NumVertices()
	ub := make([]float64, n)
	best := make([]float64, g.NumColors())
	stamp := make([]int, g.NumColors())
	var touched []int
	for v := n - 1; v >= 0; v-- {
		if alive != nil && !alive[v] {
			continue
		}
		touched = touched[:0]
		for _, e := range g.outgoing[v] {
			if keep != nil && !keep[e] {
				continue
			}
			t := g.losses[e].Tail
			c := g.colorRank[t]
			x := g.Gain(e) + ub[t]
			if stamp[c] != v+1 {
				stamp[c], best[c] = v+1, x
				touched = append(touched, c)
			} else if x > best[c] {
				best[c] = x
			}
		}
		for _, c := range touched {
			if best[c] > 0 {
				ub[v] += best[c]
			}
		}
	}
	return ub
}

// Reduce deletes the losses of g that cannot be part of an optimal tree nor
// of any tree scoring at least floor (math.Inf(-1) for no floor):
//
//   - losses into the root color or between two vertices of one color;
//   - losses with w(e) + w(tail) + ub(tail) < 0, whose subtree only costs;
//   - losses whose trees stay below floor even when every other color
//     contributes its best loss;
//   - every loss when w(root) + ub(root) stays below floor.
//
// Vertices cut off from the root go with their losses and the rules run
// again until nothing changes. Every optimal tree of g that reaches floor
// survives; trees below the optimum may not.
//
// Complexity: O(rounds · (V + E)).
func Reduce(g *Graph, floor float64) (*Reduction, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInfeasible)
	}
	if math.IsNaN(floor) {
		return nil, fmt.Errorf("%w: floor is NaN", ErrBadOptions)
	}
	m := g.NumEdges()
	keep := make([]bool, m)
	rootColor := g.colorRank[g.root]
	for e, l := range g.losses {
		ct := g.colorRank[l.Tail]
		keep[e] = ct != rootColor && ct != g.colorRank[l.Head]
	}
	below := func(x float64) bool {
		return x < floor-ScoreTolerance*math.Max(1, math.Abs(floor))
	}

	var (
		alive []bool
		ub    []float64
	)
	for changed := true; changed; {
		changed = false
		alive = g.reachable(keep)
		ub = vertexUpperBounds(g, keep, alive)

		// 1. Costly subtrees and the global bound.
		all := below(g.fragments[g.root].Weight + ub[g.root])
		for e, l := range g.losses {
			if !keep[e] {
				continue
			}
			if !alive[l.Head] || all || g.Gain(e)+ub[l.Tail] < -ScoreTolerance {
				keep[e], changed = false, true
			}
		}
		if changed || math.IsInf(floor, -1) {
			continue
		}

		// 2. Color by color.
		bestIn := make([]float64, g.NumColors())
		for e, l := range g.losses {
			if keep[e] {
				if c := g.colorRank[l.Tail]; g.Gain(e) > bestIn[c] {
					bestIn[c] = g.Gain(e)
				}
			}
		}
		total := g.fragments[g.root].Weight
		for _, x := range bestIn {
			total += x
		}
		for e, l := range g.losses {
			if keep[e] && below(total-bestIn[g.colorRank[l.Tail]]+g.Gain(e)) {
				keep[e], changed = false, true
			}
		}
	}

	r := &Reduction{src: g, upper: g.fragments[g.root].Weight + ub[g.root]}
	if err := r.build(keep); err != nil {
		return nil, err
	}
	return r, nil
}

// reachable marks the vertices reached from the root over kept losses.
// Heads precede tails, so one pass in index order suffices.
func (g *Graph) reachable(keep []bool) []bool {
	alive := make([]bool, g.NumVertices())
	alive[g.root] = true
	for v := range alive {
		if !alive[v] {
			continue
		}
		for _, e := range g.outgoing[v] {
			if keep[e] {
				alive[g.losses[e].Tail] = true
			}
		}
	}
	return alive
}

// Unreduced returns the reduction of g that deletes nothing.
func Unreduced(g *Graph) *Reduction {
	r := &Reduction{src: g, upper: math.Inf(1)}
	r.identity()
	return r
}

func (r *Reduction) identity() {
	r.reduced = r.src
	r.edges = make([]int, r.src.NumEdges())
	r.index = make([]int, r.src.NumEdges())
	for e := range r.edges {
		r.edges[e], r.index[e] = e, e
	}
}

func (r *Reduction) build(keep []bool) error {
	g := r.src
	r.index = make([]int, g.NumEdges())
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}
	if kept == g.NumEdges() {
		r.identity()
		return nil
	}

	b := NewBuilder(WithCapacity(g.NumVertices(), kept))
	for _, f := range g.fragments {
		b.AddFragment(f)
	}
	for e, l := range g.losses {
		if !keep[e] {
			continue
		}
		if _, err := b.AddLoss(l); err != nil {
			return fmt.Errorf("core: reduce: %w", err)
		}
	}
	if err := b.SetRoot(g.root); err != nil {
		return fmt.Errorf("core: reduce: %w", err)
	}
	rg, err := b.Build()
	if err != nil {
		return fmt.Errorf("core: reduce: %w", err)
	}

	for e := range r.index {
		r.index[e] = -1
	}
	r.edges = make([]int, rg.NumEdges())
	for e, l := range rg.losses {
		src, ok := g.FindLoss(rg.origin[l.Head], rg.origin[l.Tail])
		if !ok {
			return fmt.Errorf("%w: reduced loss %d has no source", ErrEdgeNotFound, e)
		}
		r.edges[e], r.index[src] = src, e
	}
	r.reduced = rg
	return nil
}

// Graph returns the reduced graph. Its Origin maps to vertices of Source.
func (r *Reduction) Graph() *Graph { return r.reduced }

// Source returns the input graph.
func (r *Reduction) Source() *Graph { return r.src }

// Removed returns the number of deleted losses.
func (r *Reduction) Removed() int { return r.src.NumEdges() - r.reduced.NumEdges() }

// UpperBound returns w(root) + ub(root) of the reduced graph, a bound on
// the score of every tree it contains.
func (r *Reduction) UpperBound() float64 { return r.upper }

// Lift maps a tree of the reduced graph back to the source graph.
func (r *Reduction) Lift(t *Tree) (*Tree, error) {
	if t == nil || t.g == r.src {
		return t, nil
	}
	if t.g != r.reduced {
		return nil, fmt.Errorf("%w: tree belongs to another graph", ErrInvalidTree)
	}
	edges := make([]int, len(t.edges))
	for i, e := range t.edges {
		edges[i] = r.edges[e]
	}
	return NewTree(r.src, edges)
}

// Project maps losses of the source graph to the reduced graph. It reports
// false when one of them was deleted.
func (r *Reduction) Project(edges []int) ([]int, bool) {
	out := make([]int, len(edges))
	for i, e := range edges {
		if e < 0 || e >= len(r.index) || r.index[e] < 0 {
			return nil, false
		}
		out[i] = r.index[e]
	}
	return out, true
}

// ProjectMask maps a per-loss mask of the source graph to the reduced graph.
// A nil mask stays nil.
func (r *Reduction) ProjectMask(mask []bool) []bool {
	if mask == nil {
		return nil
	}
	out := make([]bool, len(r.edges))
	for e, src := range r.edges {
		out[e] = mask[src]
	}
	return out
}
