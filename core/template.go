package core

import "github.com/katalvlaran/fragtree/formula"

type vertexKey struct {
	f    formula.Formula
	peak int
}

// TemplateEdges maps a template tree onto g and returns the losses of g that
// form a valid tree reproducing as much of the template as possible.
//
// When tmpl was selected from g its edges are returned unchanged. Otherwise
// template vertices are matched to g by (formula, peak); the roots are always
// matched to each other. A template edge is kept when both endpoints are
// matched, the corresponding loss exists in g, its head is already part of the
// mapped tree, and its tail's color is still free. The result is always
// accepted by NewTree(g, ·).
//
// Complexity: O(V_t + V_g + Σ out-degree).
func TemplateEdges(g *Graph, tmpl *Tree) []int {
	if g == nil || tmpl == nil {
		return nil
	}
	if tmpl.g == g {
		return tmpl.Edges()
	}

	// 1. Index g by formula and peak.
	index := make(map[vertexKey]int, g.NumVertices())
	for v, f := range g.fragments {
		k := vertexKey{f.Formula, f.Peak}
		if _, dup := index[k]; !dup {
			index[k] = v
		}
	}
	tg := tmpl.g
	match := func(tv int) (int, bool) {
		if tv == tg.root {
			return g.root, true
		}
		f := tg.fragments[tv]
		v, ok := index[vertexKey{f.Formula, f.Peak}]
		return v, ok
	}

	// 2. Walk template edges in topological order and keep consistent ones.
	included := make([]bool, g.NumVertices())
	included[g.root] = true
	usedColor := make([]bool, g.NumColors())
	usedColor[g.colorRank[g.root]] = true
	var out []int
	for _, te := range tmpl.edges {
		tl := tg.losses[te]
		h, okH := match(tl.Head)
		t, okT := match(tl.Tail)
		if !okH || !okT || !included[h] || included[t] || usedColor[g.colorRank[t]] {
			continue
		}
		e, ok := g.FindLoss(h, t)
		if !ok {
			continue
		}
		included[t] = true
		usedColor[g.colorRank[t]] = true
		out = append(out, e)
	}

	return out
}
