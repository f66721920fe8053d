package core

import (
	"fmt"
	"math"
	"time"
)

// Outcome is the closed set of solve outcomes.
type Outcome int

const (
	// OutcomeComputedCorrectly: the tree is valid and clears the floor.
	OutcomeComputedCorrectly Outcome = iota

	// OutcomeInfeasible: no tree at all. Always accompanied by an error
	// wrapping ErrInfeasible or ErrInvalidTree.
	OutcomeInfeasible

	// OutcomeTimedOut: the budget elapsed; Tree holds the incumbent if any.
	OutcomeTimedOut

	// OutcomeNoSolutionAboveFloor: the best tree scores below MinScore.
	OutcomeNoSolutionAboveFloor
)

// String returns the snake_case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeComputedCorrectly:
		return "computed_correctly"
	case OutcomeInfeasible:
		return "infeasible"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeNoSolutionAboveFloor:
		return "no_solution_above_floor"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the envelope returned by every backend.
type Result struct {
	// Tree is nil for OutcomeInfeasible and OutcomeNoSolutionAboveFloor.
	Tree *Tree

	// Optimal is set only when the backend proved Tree optimal.
	Optimal bool

	Outcome Outcome

	// Backend names the backend that produced the result.
	Backend string

	// Elapsed is the wall-clock time of the solve.
	Elapsed time.Duration
}

// Score returns the tree score, or -Inf when there is no tree.
func (r Result) Score() float64 {
	if r.Tree == nil {
		return math.Inf(-1)
	}
	return r.Tree.Score()
}

// Conclude validates a backend's final tree and classifies the outcome.
//
//   - nil tree, not interrupted: OutcomeInfeasible and an error wrapping ErrInfeasible.
//   - invalid tree: OutcomeInfeasible and the ErrInvalidTree error.
//   - below the floor: OutcomeNoSolutionAboveFloor without a tree. An
//     interrupted search proves nothing, so Optimal is then cleared.
//   - interrupted: OutcomeTimedOut with the incumbent, Optimal cleared.
//   - otherwise OutcomeComputedCorrectly.
func Conclude(backend string, t *Tree, optimal, interrupted bool, opts Options, elapsed time.Duration) (Result, error) {
	res := Result{Backend: backend, Elapsed: elapsed}
	if t == nil {
		if interrupted {
			res.Outcome = OutcomeTimedOut
			return res, nil
		}
		res.Outcome = OutcomeInfeasible
		return res, fmt.Errorf("%w: backend %s returned no tree", ErrInfeasible, backend)
	}
	if err := t.Validate(); err != nil {
		res.Outcome = OutcomeInfeasible
		return res, fmt.Errorf("backend %s: %w", backend, err)
	}
	if opts.HasFloor() && t.Score() < opts.MinScore-ScoreTolerance {
		res.Optimal, res.Outcome = optimal && !interrupted, OutcomeNoSolutionAboveFloor
		return res, nil
	}
	if interrupted {
		res.Tree, res.Outcome = t, OutcomeTimedOut
		return res, nil
	}
	res.Tree, res.Optimal, res.Outcome = t, optimal, OutcomeComputedCorrectly

	return res, nil
}
