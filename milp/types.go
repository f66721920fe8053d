package milp

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/fragtree/core"
)

// Engine names.
const (
	NameBranchAndBound = "bnb"
	NameHiGHS          = "highs"
	NameGurobi         = "gurobi"
	NameCBC            = "cbc"
)

var (
	// ErrEngineUnavailable indicates that an engine cannot run here: missing
	// binary, missing license, build without native support, or an open
	// circuit breaker.
	ErrEngineUnavailable = errors.New("milp: engine unavailable")

	// ErrSolutionMismatch indicates that an engine's solution does not
	// reproduce its reported objective or violates the model.
	ErrSolutionMismatch = errors.New("milp: solution does not match the model")

	// ErrEngineFailed indicates an engine run that produced no usable answer.
	ErrEngineFailed = errors.New("milp: engine failed")

	// ErrBadK indicates a non-positive tree count.
	ErrBadK = errors.New("milp: k must be positive")
)

// Status is the engine-level result of one model solve.
type Status int

const (
	// StatusOptimal: X is a proven optimum.
	StatusOptimal Status = iota

	// StatusTimeLimit: the budget ran out; X is the incumbent or nil.
	StatusTimeLimit

	// StatusInfeasible: the model has no solution (only possible with a
	// score floor row).
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time_limit"
	case StatusInfeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Params are the per-solve engine settings.
type Params struct {
	Deadline core.Deadline
	Threads  int
}

// Solution is an engine's answer. Objective excludes Model.Constant.
type Solution struct {
	Status    Status
	X         []float64
	Objective float64
}

// Engine solves 0/1 models.
type Engine interface {
	// Name identifies the engine ("bnb", "highs", "gurobi", "cbc").
	Name() string

	// Probe reports ErrEngineUnavailable when the engine cannot run.
	Probe(ctx context.Context) error

	// ThreadSafe reports whether Solve may be called concurrently.
	ThreadSafe() bool

	// Solve maximizes m. It honors p.Deadline and uses m.Start when set.
	Solve(ctx context.Context, m *Model, p Params) (Solution, error)
}

const (
	// intTol is the distance from 0 or 1 below which a value counts as integral.
	intTol = 1e-6

	// rowTol is the slack allowed on a constraint row.
	rowTol = 1e-7
)
