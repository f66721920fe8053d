package heuristic

import (
	"context"
	"math"

	"github.com/katalvlaran/fragtree/core"
)

// CriticalPath is the greedy critical-path heuristic.
type CriticalPath struct {
	timer
}

// NewCriticalPath returns the critical-path heuristic.
func NewCriticalPath() *CriticalPath { return &CriticalPath{} }

// Name returns "critical-path".
func (*CriticalPath) Name() string { return NameCriticalPath }

// ThreadSafe reports true.
func (*CriticalPath) ThreadSafe() bool { return true }

// ComputeTree builds one tree.
func (c *CriticalPath) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	return computeTree(ctx, NameCriticalPath, &c.timer, c.grow, g, opts)
}

// ComputeMultipleTrees returns up to k distinct trees, best first.
func (c *CriticalPath) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	return computeMultipleTrees(ctx, NameCriticalPath, &c.timer, c.grow, g, k, opts)
}

// LowerBound grows one critical-path tree of g that avoids the excluded
// losses (nil for none), starting from the template when opts has one. Its
// score bounds the optimum from below. When dl has passed the tree holds
// what was grown so far, at least the root.
func LowerBound(g *core.Graph, excluded []bool, dl core.Deadline, opts core.Options) (*core.Tree, error) {
	t, _, err := (&CriticalPath{}).grow(g, excluded, dl, opts)
	return t, err
}

// grow attaches best paths until none improves the score.
//
// Steps per round:
//  1. For every free vertex of a free color, compute down[v], the best value
//     of a downward path starting at v through free vertices of free colors
//     (colors may repeat along the path at this stage).
//  2. Pick the attachable edge e maximizing w(e) + down[tail(e)].
//  3. Follow the path, stop at the first repeated color, and attach the
//     prefix with the largest positive gain. A start edge without a
//     positive prefix is banned.
func (c *CriticalPath) grow(g *core.Graph, excluded []bool, dl core.Deadline, opts core.Options) (*core.Tree, bool, error) {
	w := newWork(g, excluded)
	w.seed(core.TemplateEdges(g, opts.Template))

	n, m := g.NumVertices(), g.NumEdges()
	down := make([]float64, n)
	next := make([]int, n)
	banned := make([]bool, m)
	stamp := make([]int, g.NumColors())
	round := 0
	interrupted := false

	for {
		if dl.Exceeded() {
			interrupted = true
			break
		}
		round++

		// 1. Downward path values.
		for v := n - 1; v >= 0; v-- {
			next[v] = -1
			if w.has(v) || !w.colorFree(v) {
				down[v] = math.Inf(-1)
				continue
			}
			best := 0.0
			for _, e := range g.Outgoing(v) {
				u := g.Loss(e).Tail
				if !w.allowed(e) || math.IsInf(down[u], -1) || g.ColorIndex(u) == g.ColorIndex(v) {
					continue
				}
				if val := g.EdgeWeight(e) + down[u]; val > best {
					best, next[v] = val, e
				}
			}
			down[v] = g.VertexWeight(v) + best
		}

		// 2. Best attachment.
		start, bestVal := -1, 0.0
		for e := 0; e < m; e++ {
			if banned[e] || !w.canAdd(e) {
				continue
			}
			if val := g.EdgeWeight(e) + down[g.Loss(e).Tail]; val > bestVal {
				start, bestVal = e, val
			}
		}
		if start < 0 {
			break
		}

		// 3. Colorful prefix with the best gain.
		path := []int{start}
		u := g.Loss(start).Tail
		stamp[g.ColorIndex(u)] = round
		for e := next[u]; e >= 0; e = next[u] {
			x := g.Loss(e).Tail
			if stamp[g.ColorIndex(x)] == round {
				break
			}
			stamp[g.ColorIndex(x)] = round
			path = append(path, e)
			u = x
		}
		sum, bestSum, bestLen := 0.0, 0.0, 0
		for i, e := range path {
			sum += g.Gain(e)
			if sum > bestSum {
				bestSum, bestLen = sum, i+1
			}
		}
		if bestLen == 0 {
			banned[start] = true
			continue
		}
		for _, e := range path[:bestLen] {
			w.add(e)
		}
	}

	w.pruneNegative()
	t, err := w.tree()
	return t, interrupted, err
}
