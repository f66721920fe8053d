// Package graphtest provides candidate graphs shared by the solver test suites:
// the hand-built scenarios with known optima and seeded random DAGs for the
// universally quantified tree invariants.
package graphtest

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/formula"
)

// must panics on a construction error; fixtures are static.
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("graphtest: %v", err))
	}
	return v
}

// Scenario returns root(c0,w0) → A(c1,w5) via w2 and root → B(c1,w3) via w1.
// The optimum is {root, A} with score 7.
func Scenario() *core.Graph {
	b := core.NewBuilder()
	root := b.AddFragment(core.Fragment{Formula: formula.MustParse("C6H12O6"), Peak: 0, Color: 0})
	a := b.AddFragment(core.Fragment{Formula: formula.MustParse("C6H10O5"), Peak: 1, Color: 1, Weight: 5})
	bb := b.AddFragment(core.Fragment{Formula: formula.MustParse("C5H12O5"), Peak: 1, Color: 1, Weight: 3})
	must(b.AddLoss(core.Loss{Head: root, Tail: a, Formula: formula.MustParse("H2O"), Weight: 2}))
	must(b.AddLoss(core.Loss{Head: root, Tail: bb, Formula: formula.MustParse("CO"), Weight: 1}))
	if err := b.SetRoot(root); err != nil {
		panic(err)
	}
	return must(b.Build())
}

// Decoy returns the scenario graph plus a disconnected vertex of weight 1000
// with its own child. Build prunes both.
func Decoy() *core.Graph {
	b := core.NewBuilder()
	root := b.AddFragment(core.Fragment{Peak: 0, Color: 0})
	decoy := b.AddFragment(core.Fragment{Peak: 3, Color: 3, Weight: 1000})
	a := b.AddFragment(core.Fragment{Peak: 1, Color: 1, Weight: 5})
	c := b.AddFragment(core.Fragment{Peak: 2, Color: 2, Weight: 50})
	must(b.AddLoss(core.Loss{Head: root, Tail: a, Weight: 2}))
	must(b.AddLoss(core.Loss{Head: decoy, Tail: c, Weight: 10}))
	if err := b.SetRoot(root); err != nil {
		panic(err)
	}
	return must(b.Build())
}

// NegativeVertex returns root → A(w5) via w1, A → N(w-10) via w1,
// N → M(w3) via w1 and root → C(w2) via w0. The optimum {root, A, C} scores 8
// and excludes N even though M would be reachable through it.
func NegativeVertex() *core.Graph {
	b := core.NewBuilder()
	root := b.AddFragment(core.Fragment{Peak: 0, Color: 0})
	a := b.AddFragment(core.Fragment{Peak: 1, Color: 1, Weight: 5})
	n := b.AddFragment(core.Fragment{Peak: 2, Color: 2, Weight: -10})
	m := b.AddFragment(core.Fragment{Peak: 3, Color: 3, Weight: 3})
	c := b.AddFragment(core.Fragment{Peak: 4, Color: 4, Weight: 2})
	must(b.AddLoss(core.Loss{Head: root, Tail: a, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: a, Tail: n, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: n, Tail: m, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: root, Tail: c, Weight: 0}))
	if err := b.SetRoot(root); err != nil {
		panic(err)
	}
	return must(b.Build())
}

// Diamond returns a graph where the greedy choice is wrong: root → X(c1)
// is cheap but unlocks Y(c2) and Z(c3); root → W(c1) is expensive alone.
// The optimum {root, X, Y, Z} scores 12.
func Diamond() *core.Graph {
	b := core.NewBuilder()
	root := b.AddFragment(core.Fragment{Peak: 0, Color: 0})
	x := b.AddFragment(core.Fragment{Peak: 1, Color: 1, Weight: 1})
	w := b.AddFragment(core.Fragment{Peak: 1, Color: 1, Weight: 6})
	y := b.AddFragment(core.Fragment{Peak: 2, Color: 2, Weight: 4})
	z := b.AddFragment(core.Fragment{Peak: 3, Color: 3, Weight: 4})
	must(b.AddLoss(core.Loss{Head: root, Tail: x, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: root, Tail: w, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: x, Tail: y, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: x, Tail: z, Weight: 1}))
	must(b.AddLoss(core.Loss{Head: w, Tail: y, Weight: -8}))
	if err := b.SetRoot(root); err != nil {
		panic(err)
	}
	return must(b.Build())
}

// Random returns a seeded random candidate DAG with n vertices (root
// included) and colors 1..colors for the non-root vertices; the root has
// color 0. Every non-root vertex gets at least one incoming edge from an
// earlier vertex; further forward edges appear with probability density.
// Weights are drawn from [-3, 6).
func Random(seed int64, n, colors int, density float64) *core.Graph {
	rng := rand.New(rand.NewSource(seed))
	b := core.NewBuilder(core.WithCapacity(n, n*4))
	b.AddFragment(core.Fragment{Peak: 0, Color: 0, Weight: rng.Float64()})
	for i := 1; i < n; i++ {
		c := 1 + rng.Intn(colors)
		b.AddFragment(core.Fragment{Peak: c, Color: core.Color(c), Weight: rng.Float64()*9 - 3})
	}
	for j := 1; j < n; j++ {
		first := rng.Intn(j)
		must(b.AddLoss(core.Loss{Head: first, Tail: j, Weight: rng.Float64()*9 - 3}))
		for i := 0; i < j; i++ {
			if i != first && rng.Float64() < density {
				must(b.AddLoss(core.Loss{Head: i, Tail: j, Weight: rng.Float64()*9 - 3}))
			}
		}
	}
	if err := b.SetRoot(0); err != nil {
		panic(err)
	}
	return must(b.Build())
}

// CheckTree returns an error describing the first violated tree invariant:
// colorfulness, one incoming edge per non-root vertex, heads inside the tree,
// and a score equal to the recomputed sum.
func CheckTree(t *core.Tree) error {
	if t == nil {
		return fmt.Errorf("nil tree")
	}
	g := t.Graph()
	seen := map[core.Color]int{g.Color(g.Root()): g.Root()}
	in := map[int]int{}
	score := g.VertexWeight(g.Root())
	for _, e := range t.Edges() {
		l := g.Loss(e)
		if l.Tail == g.Root() {
			return fmt.Errorf("edge %d enters the root", e)
		}
		in[l.Tail]++
		if in[l.Tail] > 1 {
			return fmt.Errorf("vertex %d has %d incoming edges", l.Tail, in[l.Tail])
		}
		if prev, dup := seen[g.Color(l.Tail)]; dup {
			return fmt.Errorf("vertices %d and %d share color %d", prev, l.Tail, g.Color(l.Tail))
		}
		seen[g.Color(l.Tail)] = l.Tail
		score += l.Weight + g.VertexWeight(l.Tail)
	}
	for _, e := range t.Edges() {
		h := g.Loss(e).Head
		if h != g.Root() && in[h] != 1 {
			return fmt.Errorf("edge %d hangs from vertex %d outside the tree", e, h)
		}
	}
	if d := score - t.Score(); d > 1e-9 || d < -1e-9 {
		return fmt.Errorf("score %v, recomputed %v", t.Score(), score)
	}
	return nil
}

// BruteForce returns the optimal tree score of g by enumerating every parent
// assignment in topological order. Exponential; keep graphs small.
func BruteForce(g *core.Graph) float64 {
	n := g.NumVertices()
	in := make([]bool, n)
	used := map[core.Color]bool{g.Color(g.Root()): true}
	in[g.Root()] = true
	best := math.Inf(-1)
	var rec func(v int, score float64)
	rec = func(v int, score float64) {
		if v == n {
			best = math.Max(best, score)
			return
		}
		rec(v+1, score)
		c := g.Color(v)
		if used[c] {
			return
		}
		for _, e := range g.Incoming(v) {
			if !in[g.Loss(e).Head] {
				continue
			}
			in[v], used[c] = true, true
			rec(v+1, score+g.Gain(e))
			in[v], used[c] = false, false
		}
	}
	rec(1, g.VertexWeight(g.Root()))
	return best
}
