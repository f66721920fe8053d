package heuristic

import (
	"context"

	"github.com/katalvlaran/fragtree/core"
)

// Insertion is the greedy insertion heuristic.
type Insertion struct {
	timer
}

// NewInsertion returns the insertion heuristic.
func NewInsertion() *Insertion { return &Insertion{} }

// Name returns "insertion".
func (*Insertion) Name() string { return NameInsertion }

// ThreadSafe reports true.
func (*Insertion) ThreadSafe() bool { return true }

// ComputeTree builds one tree.
func (in *Insertion) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	return computeTree(ctx, NameInsertion, &in.timer, in.grow, g, opts)
}

// ComputeMultipleTrees returns up to k distinct trees, best first.
func (in *Insertion) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	return computeMultipleTrees(ctx, NameInsertion, &in.timer, in.grow, g, k, opts)
}

func (in *Insertion) grow(g *core.Graph, excluded []bool, dl core.Deadline, opts core.Options) (*core.Tree, bool, error) {
	w := newWork(g, excluded)
	w.seed(core.TemplateEdges(g, opts.Template))
	interrupted := insert(w, dl)
	w.pruneNegative()
	t, err := w.tree()
	return t, interrupted, err
}

// Extend grows t by insertion over vertices of colors t does not use yet.
// The result never scores below t. Extend does not prune; every step it
// takes has positive gain.
func Extend(g *core.Graph, t *core.Tree) (*core.Tree, error) {
	w := newWork(g, nil)
	if t != nil {
		// Edges are sorted by tail and heads precede tails, so every head is
		// present before its edge is seeded.
		w.seed(t.Edges())
	}
	insert(w, core.Deadline{})
	return w.tree()
}

// insert repeatedly adds the free vertex with the largest positive value:
// its best attachment gain plus Σ max(0, w(u→x) − w(in(x))) over tree
// vertices x it can adopt. Adopted vertices are re-hung below it.
//
// Complexity: O(V + E) per round, at most C rounds.
func insert(w *work, dl core.Deadline) bool {
	g := w.g
	n := g.NumVertices()
	for {
		if dl.Exceeded() {
			return true
		}
		pick, attach, bestVal := -1, -1, 0.0
		for u := 0; u < n; u++ {
			if w.has(u) || !w.colorFree(u) {
				continue
			}
			e, gain := bestAttachment(w, u)
			if e < 0 {
				continue
			}
			if val := gain + adoptionBonus(w, u); val > bestVal+core.ScoreTolerance {
				pick, attach, bestVal = u, e, val
			}
		}
		if pick < 0 {
			return false
		}
		w.add(attach)
		for _, e := range g.Outgoing(pick) {
			x := g.Loss(e).Tail
			if w.allowed(e) && w.in[x] >= 0 && g.EdgeWeight(e) > g.EdgeWeight(w.in[x]) {
				w.rehang(x, e)
			}
		}
	}
}

func bestAttachment(w *work, u int) (int, float64) {
	g := w.g
	best, gain := -1, 0.0
	for _, e := range g.Incoming(u) {
		if !w.canAdd(e) {
			continue
		}
		if x := g.Gain(e); best < 0 || x > gain {
			best, gain = e, x
		}
	}
	return best, gain
}

func adoptionBonus(w *work, u int) float64 {
	g := w.g
	bonus := 0.0
	for _, e := range g.Outgoing(u) {
		x := g.Loss(e).Tail
		if !w.allowed(e) || w.in[x] < 0 {
			continue
		}
		if d := g.EdgeWeight(e) - g.EdgeWeight(w.in[x]); d > 0 {
			bonus += d
		}
	}
	return bonus
}
