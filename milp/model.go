package milp

import (
	"fmt"
	"math"
	"strconv"

	"github.com/katalvlaran/fragtree/core"
)

// Row is the constraint Σ Coefs[i]·x[Cols[i]] ≤ Upper.
type Row struct {
	Name  string
	Cols  []int
	Coefs []float64
	Upper float64
}

// Model is the 0/1 program of one candidate graph: column e is the loss e of
// the graph.
type Model struct {
	// Cost[e] is w(e) + w(tail(e)).
	Cost []float64

	// Upper[e] is 1, or 0 for an excluded loss.
	Upper []float64

	// Constant is w(root), the score of the empty selection.
	Constant float64

	Rows []Row

	// Start is a feasible warm start, or nil.
	Start []float64

	g *core.Graph
}

// Formulate builds the model of g under opts.
//
// Rows:
//   - tree: x(u→v) - Σ x(·→u) ≤ 0 for every loss whose head u is not the root;
//   - color: Σ x(·→v), v of color c ≤ 1 (≤ 0 for the root color), which also
//     bounds the in-degree of every vertex by one;
//   - floor: -Σ Cost·x ≤ Constant - MinScore when opts has a floor.
//
// The graph is acyclic, so the tree rows alone make the selection a tree
// hanging from the root. The template, if any, becomes the warm start when it
// satisfies every row.
func Formulate(g *core.Graph, opts core.Options) (*Model, error) {
	return formulate(g, opts, nil)
}

func formulate(g *core.Graph, opts core.Options, excluded []bool) (*Model, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", core.ErrInfeasible)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := g.NumEdges()
	md := &Model{
		Cost:     make([]float64, m),
		Upper:    make([]float64, m),
		Constant: g.VertexWeight(g.Root()),
		g:        g,
	}
	for e := 0; e < m; e++ {
		md.Cost[e] = g.Gain(e)
		md.Upper[e] = 1
		if excluded != nil && excluded[e] {
			md.Upper[e] = 0
		}
	}

	// 1. Tree rows.
	for e := 0; e < m; e++ {
		u := g.Loss(e).Head
		if u == g.Root() {
			continue
		}
		in := g.Incoming(u)
		r := Row{Name: "t" + strconv.Itoa(e), Cols: make([]int, 0, len(in)+1), Coefs: make([]float64, 0, len(in)+1)}
		r.Cols = append(r.Cols, e)
		r.Coefs = append(r.Coefs, 1)
		for _, f := range in {
			r.Cols = append(r.Cols, f)
			r.Coefs = append(r.Coefs, -1)
		}
		md.Rows = append(md.Rows, r)
	}

	// 2. Color rows.
	byColor := make([][]int, g.NumColors())
	for e := 0; e < m; e++ {
		ci := g.ColorIndex(g.Loss(e).Tail)
		byColor[ci] = append(byColor[ci], e)
	}
	rootColor := g.ColorIndex(g.Root())
	for ci, cols := range byColor {
		if len(cols) == 0 {
			continue
		}
		r := Row{Name: "c" + strconv.Itoa(ci), Cols: cols, Coefs: make([]float64, len(cols)), Upper: 1}
		for i := range r.Coefs {
			r.Coefs[i] = 1
		}
		if ci == rootColor {
			r.Upper = 0
		}
		md.Rows = append(md.Rows, r)
	}

	// 3. Floor row.
	if opts.HasFloor() {
		r := Row{Name: "floor", Cols: make([]int, m), Coefs: make([]float64, m), Upper: md.Constant - opts.MinScore + core.ScoreTolerance}
		for e := 0; e < m; e++ {
			r.Cols[e], r.Coefs[e] = e, -md.Cost[e]
		}
		md.Rows = append(md.Rows, r)
	}

	// 4. Warm start.
	if edges := core.TemplateEdges(g, opts.Template); len(edges) > 0 {
		if x := md.Assignment(edges); md.Feasible(x) == nil {
			md.Start = x
		}
	}

	return md, nil
}

// Graph returns the graph the model was built from.
func (m *Model) Graph() *core.Graph { return m.g }

// NumCols returns the number of variables.
func (m *Model) NumCols() int { return len(m.Cost) }

// Objective returns Constant + Σ Cost·x.
func (m *Model) Objective(x []float64) float64 {
	s := m.Constant
	for e, c := range m.Cost {
		s += c * x[e]
	}
	return s
}

// Feasible reports the first violated bound, integrality or row condition.
func (m *Model) Feasible(x []float64) error {
	if len(x) != len(m.Cost) {
		return fmt.Errorf("%w: %d values for %d columns", ErrSolutionMismatch, len(x), len(m.Cost))
	}
	for e, v := range x {
		if math.Abs(v-math.Round(v)) > intTol {
			return fmt.Errorf("%w: x%d=%g is fractional", ErrSolutionMismatch, e, v)
		}
		if v < -intTol || v > m.Upper[e]+intTol {
			return fmt.Errorf("%w: x%d=%g outside [0, %g]", ErrSolutionMismatch, e, v, m.Upper[e])
		}
	}
	for _, r := range m.Rows {
		if lhs := r.eval(x); lhs > r.Upper+rowTol {
			return fmt.Errorf("%w: row %s has %g > %g", ErrSolutionMismatch, r.Name, lhs, r.Upper)
		}
	}
	return nil
}

// Edges returns the losses set to one in x.
func (m *Model) Edges(x []float64) []int {
	var out []int
	for e, v := range x {
		if v > 0.5 {
			out = append(out, e)
		}
	}
	return out
}

// Assignment returns the 0/1 vector selecting edges.
func (m *Model) Assignment(edges []int) []float64 {
	x := make([]float64, len(m.Cost))
	for _, e := range edges {
		x[e] = 1
	}
	return x
}

func (r Row) eval(x []float64) float64 {
	s := 0.0
	for i, c := range r.Cols {
		s += r.Coefs[i] * x[c]
	}
	return s
}
