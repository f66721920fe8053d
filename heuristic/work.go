package heuristic

import (
	"github.com/katalvlaran/fragtree/core"
)

const (
	free   = -1
	rootIn = -2
)

// work is the mutable tree shared by all heuristics.
type work struct {
	g        *core.Graph
	in       []int  // vertex → incoming loss, free, or rootIn
	used     []bool // dense color → taken
	excluded []bool // edge → forbidden; nil means none
	score    float64
}

func newWork(g *core.Graph, excluded []bool) *work {
	w := &work{
		g:        g,
		in:       make([]int, g.NumVertices()),
		used:     make([]bool, g.NumColors()),
		excluded: excluded,
	}
	for v := range w.in {
		w.in[v] = free
	}
	r := g.Root()
	w.in[r] = rootIn
	w.used[g.ColorIndex(r)] = true
	w.score = g.VertexWeight(r)
	return w
}

func (w *work) has(v int) bool       { return w.in[v] != free }
func (w *work) colorFree(v int) bool { return !w.used[w.g.ColorIndex(v)] }
func (w *work) allowed(e int) bool   { return w.excluded == nil || !w.excluded[e] }

// canAdd reports whether e attaches a new vertex of an unused color below
// a tree vertex.
func (w *work) canAdd(e int) bool {
	l := w.g.Loss(e)
	return w.allowed(e) && w.has(l.Head) && !w.has(l.Tail) && w.colorFree(l.Tail)
}

func (w *work) add(e int) {
	t := w.g.Loss(e).Tail
	w.in[t] = e
	w.used[w.g.ColorIndex(t)] = true
	w.score += w.g.Gain(e)
}

// rehang replaces the incoming edge of tree vertex x by e (whose head is in
// the tree). Heads precede tails, so this never creates a cycle.
func (w *work) rehang(x, e int) {
	w.score += w.g.EdgeWeight(e) - w.g.EdgeWeight(w.in[x])
	w.in[x] = e
}

func (w *work) drop(v int) {
	w.score -= w.g.Gain(w.in[v])
	w.in[v] = free
	w.used[w.g.ColorIndex(v)] = false
}

// seed adds the given edges in order, skipping those that do not fit.
func (w *work) seed(edges []int) {
	for _, e := range edges {
		if w.canAdd(e) {
			w.add(e)
		}
	}
}

func (w *work) edges() []int {
	var out []int
	for _, e := range w.in {
		if e >= 0 {
			out = append(out, e)
		}
	}
	return out
}

func (w *work) tree() (*core.Tree, error) { return core.NewTree(w.g, w.edges()) }

// pruneNegative cuts every subtree whose contribution, including the edge
// that connects it, is negative.
//
// Complexity: O(V).
func (w *work) pruneNegative() {
	g := w.g
	n := g.NumVertices()
	value := make([]float64, n)
	cut := make([]bool, n)
	for v := 0; v < n; v++ {
		if w.has(v) {
			value[v] = g.VertexWeight(v)
		}
	}
	// 1. Bottom-up subtree values; children have larger indices.
	for v := n - 1; v >= 0; v-- {
		e := w.in[v]
		if e < 0 {
			continue
		}
		if c := g.EdgeWeight(e) + value[v]; c < 0 {
			cut[v] = true
		} else {
			value[g.Loss(e).Head] += c
		}
	}
	// 2. Top-down removal of cut vertices and everything below them.
	for v := 0; v < n; v++ {
		e := w.in[v]
		if e < 0 {
			continue
		}
		if cut[v] || !w.has(g.Loss(e).Head) {
			w.drop(v)
		}
	}
}
