//go:build highs

package milp

import (
	"context"
	"fmt"
	"math"

	"github.com/lanl/highs"
)

// HiGHS solves models in-process with the HiGHS library through cgo. The
// native call cannot be interrupted, so the deadline is checked only before
// it starts.
type HiGHS struct{}

// NewHiGHS returns the native HiGHS engine.
func NewHiGHS() *HiGHS { return &HiGHS{} }

// Name returns "highs".
func (*HiGHS) Name() string { return NameHiGHS }

// Probe succeeds: the library is linked in.
func (*HiGHS) Probe(context.Context) error { return nil }

// ThreadSafe reports false; the library keeps global state per process.
func (*HiGHS) ThreadSafe() bool { return false }

// Solve minimizes the negated objective, since the model carries costs only.
func (*HiGHS) Solve(ctx context.Context, m *Model, p Params) (Solution, error) {
	if p.Deadline.Exceeded() {
		return Solution{Status: StatusTimeLimit}, nil
	}
	n := m.NumCols()
	lp := new(highs.Model)
	lp.VarTypes = make([]highs.VariableType, n)
	lp.ColLower = make([]float64, n)
	lp.ColUpper = make([]float64, n)
	lp.ColCosts = make([]float64, n)
	for e := 0; e < n; e++ {
		lp.VarTypes[e] = highs.IntegerType
		lp.ColUpper[e] = m.Upper[e]
		lp.ColCosts[e] = -m.Cost[e]
	}
	for i, r := range m.Rows {
		for k, c := range r.Cols {
			lp.ConstMatrix = append(lp.ConstMatrix, highs.Nonzero{Row: i, Col: c, Val: r.Coefs[k]})
		}
		lp.RowLower = append(lp.RowLower, math.Inf(-1))
		lp.RowUpper = append(lp.RowUpper, r.Upper)
	}

	sol, err := lp.Solve()
	if err != nil {
		return Solution{}, fmt.Errorf("%w: highs: %v", ErrEngineFailed, err)
	}
	if sol.Status == highs.Optimal {
		x := append([]float64(nil), sol.ColumnPrimal[:n]...)
		return Solution{Status: StatusOptimal, X: x, Objective: -sol.Objective}, nil
	}
	if len(sol.ColumnPrimal) >= n {
		x := roundAll(sol.ColumnPrimal[:n])
		if m.Feasible(x) == nil {
			return Solution{Status: StatusTimeLimit, X: x, Objective: m.Objective(x) - m.Constant}, nil
		}
	}
	if m.Feasible(make([]float64, n)) == nil {
		return Solution{}, fmt.Errorf("%w: highs status %v", ErrEngineFailed, sol.Status)
	}
	return Solution{Status: StatusInfeasible}, nil
}
