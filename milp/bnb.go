package milp

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/fragtree/core"
)

// simplexTol is the tolerance handed to lp.Simplex.
const simplexTol = 1e-10

// BranchAndBound is the bundled engine: best-first branch and bound over the
// LP relaxation, solved with gonum's simplex. It needs no external library
// and is meant for small and medium graphs.
type BranchAndBound struct{}

// NewBranchAndBound returns the bundled engine.
func NewBranchAndBound() *BranchAndBound { return &BranchAndBound{} }

// Name returns "bnb".
func (*BranchAndBound) Name() string { return NameBranchAndBound }

// Probe always succeeds.
func (*BranchAndBound) Probe(context.Context) error { return nil }

// ThreadSafe reports true.
func (*BranchAndBound) ThreadSafe() bool { return true }

// bbNode is a subproblem: fix[e] is -1 (free), 0 or 1.
type bbNode struct {
	fix   []int8
	bound float64
	x     []float64 // relaxation optimum, nil when the LP failed numerically
	seq   int
}

// nodeQueue is a max-heap on bound; equal bounds pop in creation order.
type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound > q[j].bound
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*bbNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// Solve maximizes m.
//
// Steps:
//  1. Incumbent: the warm start, else the empty selection when feasible.
//  2. Pop the node with the best bound; stop when it cannot beat the incumbent.
//  3. An integral relaxation updates the incumbent; otherwise a rounding of
//     it is tried and the most fractional column is branched on (1 first).
//  4. The deadline is checked before every relaxation, and a relaxation
//     still running when it passes is abandoned; the incumbent is then
//     returned with StatusTimeLimit.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model, p Params) (Solution, error) {
	n := m.NumCols()
	var (
		inc    []float64
		incObj = math.Inf(-1)
	)
	offer := func(x []float64) {
		if x == nil || m.Feasible(x) != nil {
			return
		}
		if obj := m.Objective(x) - m.Constant; obj > incObj+core.ScoreTolerance {
			inc, incObj = x, obj
		}
	}

	// 1. Incumbent.
	offer(m.Start)
	offer(make([]float64, n))

	root := &bbNode{fix: make([]int8, n)}
	for e := range root.fix {
		root.fix[e] = -1
		if m.Upper[e] == 0 {
			root.fix[e] = 0
		}
	}
	seq := 0
	q := &nodeQueue{}
	ok, inTime := relaxWithin(p.Deadline, m, root)
	if !inTime {
		return finish(inc, incObj, StatusTimeLimit), nil
	}
	if ok {
		heap.Push(q, root)
	}

	for q.Len() > 0 {
		// 2. Best node.
		nd := heap.Pop(q).(*bbNode)
		if nd.bound <= incObj+core.ScoreTolerance*math.Max(1, math.Abs(incObj)) {
			break
		}

		// 3. Integral or branch.
		col := branchColumn(nd)
		if col < 0 {
			offer(roundAll(nd.x))
			continue
		}
		if nd.x != nil {
			offer(roundTree(m, nd))
		}
		for _, val := range [2]int8{1, 0} {
			child := &bbNode{fix: append([]int8(nil), nd.fix...)}
			child.fix[col] = val
			seq++
			child.seq = seq

			// 4. Deadline.
			ok, inTime := relaxWithin(p.Deadline, m, child)
			if !inTime {
				return finish(inc, incObj, StatusTimeLimit), nil
			}
			if ok && child.bound > incObj+core.ScoreTolerance {
				heap.Push(q, child)
			}
		}
	}

	if inc == nil {
		return Solution{Status: StatusInfeasible}, nil
	}
	return finish(inc, incObj, StatusOptimal), nil
}

// relaxWithin runs relax on nd unless dl has passed. lp.Simplex cannot be
// interrupted, so under a limited or cancellable budget it runs on its own
// goroutine; when dl passes first, inTime is false and nd must be dropped,
// the abandoned relaxation finishing in the background.
func relaxWithin(dl core.Deadline, m *Model, nd *bbNode) (feasible, inTime bool) {
	if dl.Exceeded() {
		return false, false
	}
	rem, limited := dl.Remaining()
	done := dl.Context().Done()
	if !limited && done == nil {
		return relax(m, nd), true
	}

	res := make(chan bool, 1)
	go func() { res <- relax(m, nd) }()
	var expired <-chan time.Time
	if limited {
		t := time.NewTimer(rem)
		defer t.Stop()
		expired = t.C
	}
	select {
	case ok := <-res:
		return ok, true
	case <-expired:
		return false, false
	case <-done:
		return false, false
	}
}

func finish(x []float64, obj float64, st Status) Solution {
	if x == nil {
		return Solution{Status: st}
	}
	return Solution{Status: st, X: x, Objective: obj}
}

// relax solves the LP relaxation of nd, storing its bound (without
// Constant) and optimum. It returns false when the relaxation is infeasible.
// A numerical simplex failure yields the trivial bound and a nil optimum.
func relax(m *Model, nd *bbNode) bool {
	// Free columns take an LP variable; fixed ones move to the right-hand side.
	free := make([]int, 0, len(nd.fix))
	fixedObj := 0.0
	for e, f := range nd.fix {
		switch f {
		case -1:
			free = append(free, e)
		case 1:
			fixedObj += m.Cost[e]
		}
	}
	rhs := func(r Row) float64 {
		u := r.Upper
		for i, c := range r.Cols {
			if nd.fix[c] == 1 {
				u -= r.Coefs[i]
			}
		}
		return u
	}

	if len(free) == 0 {
		for _, r := range m.Rows {
			if rhs(r) < -rowTol {
				return false
			}
		}
		nd.bound, nd.x = fixedObj, fixedVector(nd.fix, nil, nil)
		return true
	}

	// Standard form: A [x_free | s] = b, x, s ≥ 0, one slack per row. Every
	// column sits in the color row of its tail, so x ≤ 1 needs no extra row.
	pos := make([]int, len(nd.fix))
	for i := range pos {
		pos[i] = -1
	}
	for i, e := range free {
		pos[e] = i
	}
	nf := len(free)
	rows := len(m.Rows)
	cols := nf + rows
	A := mat.NewDense(rows, cols, nil)
	bv := make([]float64, rows)
	for i, r := range m.Rows {
		for k, c := range r.Cols {
			if j := pos[c]; j >= 0 {
				A.Set(i, j, A.At(i, j)+r.Coefs[k])
			}
		}
		A.Set(i, nf+i, 1)
		bv[i] = rhs(r)
	}
	c := make([]float64, cols)
	for j, e := range free {
		c[j] = -m.Cost[e]
	}

	optF, optX, err := lp.Simplex(c, A, bv, simplexTol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return false
	case err != nil:
		bound := fixedObj
		for _, e := range free {
			if m.Cost[e] > 0 {
				bound += m.Cost[e]
			}
		}
		nd.bound, nd.x = bound, nil
		return true
	}
	nd.bound = fixedObj - optF
	nd.x = fixedVector(nd.fix, free, optX)
	return true
}

// fixedVector expands an LP optimum over the free columns to all columns.
func fixedVector(fix []int8, free []int, xf []float64) []float64 {
	x := make([]float64, len(fix))
	for e, f := range fix {
		if f == 1 {
			x[e] = 1
		}
	}
	for j, e := range free {
		x[e] = xf[j]
	}
	return x
}

// branchColumn returns the most fractional free column, the first free
// column when the relaxation is unknown, or -1 when nd is integral.
func branchColumn(nd *bbNode) int {
	if nd.x == nil {
		for e, f := range nd.fix {
			if f == -1 {
				return e
			}
		}
		return -1
	}
	best, dist := -1, 1.0
	for e, v := range nd.x {
		if nd.fix[e] != -1 {
			continue
		}
		frac := v - math.Floor(v)
		if frac <= intTol || frac >= 1-intTol {
			continue
		}
		if d := math.Abs(frac - 0.5); d < dist {
			best, dist = e, d
		}
	}
	return best
}

func roundAll(x []float64) []float64 {
	if x == nil {
		return nil
	}
	out := make([]float64, len(x))
	for e, v := range x {
		out[e] = math.Round(v)
	}
	return out
}

// roundTree builds a tree from the relaxation: in tail order, every vertex
// takes its incoming loss with the largest value above one half, provided
// the head is selected and the color is free. Fixed columns are honored.
func roundTree(m *Model, nd *bbNode) []float64 {
	g := m.g
	if g == nil {
		return nil
	}
	in := make([]bool, g.NumVertices())
	in[g.Root()] = true
	used := make([]bool, g.NumColors())
	used[g.ColorIndex(g.Root())] = true
	x := make([]float64, m.NumCols())
	for v := 0; v < g.NumVertices(); v++ {
		if v == g.Root() || used[g.ColorIndex(v)] {
			continue
		}
		pick, val := -1, 0.5
		for _, e := range g.Incoming(v) {
			if nd.fix[e] == 0 || !in[g.Loss(e).Head] {
				continue
			}
			if nd.fix[e] == 1 {
				pick, val = e, 2
				break
			}
			if nd.x[e] > val {
				pick, val = e, nd.x[e]
			}
		}
		if pick >= 0 {
			x[pick], in[v], used[g.ColorIndex(v)] = 1, true, true
		}
	}
	return x
}
