package scoring

import (
	"errors"

	"github.com/katalvlaran/fragtree/formula"
	"github.com/katalvlaran/fragtree/spectrum"
)

// Sentinel errors for scorer registration and reduction.
var (
	// ErrNoCapability indicates a scorer implementing none of the scorer kinds.
	ErrNoCapability = errors.New("scoring: scorer has no capability")

	// ErrDuplicateScorer indicates a second scorer with an already registered name.
	ErrDuplicateScorer = errors.New("scoring: duplicate scorer name")

	// ErrRandomizedScorer indicates a randomized scorer in a set that does not allow it.
	ErrRandomizedScorer = errors.New("scoring: randomized scorer not allowed")

	// ErrBadScore indicates a scorer returned NaN or ±Inf during reduction.
	ErrBadScore = errors.New("scoring: non-finite score")

	// ErrBadCandidate indicates a candidate referencing a peak outside the spectrum.
	ErrBadCandidate = errors.New("scoring: invalid candidate")

	// ErrNilInput indicates a nil scorer set, spectrum or tree.
	ErrNilInput = errors.New("scoring: nil input")
)

// Kind is a scorer capability.
type Kind int

const (
	KindFragment Kind = iota
	KindLoss
	KindPeak
	KindPeakPair
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "fragment"
	case KindLoss:
		return "loss"
	case KindPeak:
		return "peak"
	case KindPeakPair:
		return "peak_pair"
	default:
		return "unknown"
	}
}

// Scorer is the common part of every scorer.
type Scorer interface {
	// Name identifies the scorer in a Set and in breakdowns.
	Name() string
}

// FragmentScorer scores a formula as explanation of a peak.
type FragmentScorer interface {
	Scorer
	ScoreFragment(s *spectrum.Spectrum, peak int, f formula.Formula) float64
}

// LossScorer scores a neutral loss between a parent and a child formula.
type LossScorer interface {
	Scorer
	ScoreLoss(s *spectrum.Spectrum, parent, child, loss formula.Formula) float64
}

// PeakScorer scores a peak independently of its explanation.
type PeakScorer interface {
	Scorer
	ScorePeak(s *spectrum.Spectrum, peak int) float64
}

// PeakPairScorer scores the relation between a parent and a child peak.
type PeakPairScorer interface {
	Scorer
	ScorePeakPair(s *spectrum.Spectrum, parent, child int) float64
}

// Randomized is implemented by scorers whose output is not a pure function
// of their inputs.
type Randomized interface {
	Randomized() bool
}

// Candidate is a candidate fragment: a formula explaining one peak.
type Candidate struct {
	Formula formula.Formula
	Peak    int
}

// Edge is a candidate loss between two candidate indices (Head = parent).
type Edge struct {
	Head int
	Tail int
}

// Weights holds the reduced scores, parallel to the candidate and edge slices.
type Weights struct {
	Vertex []float64
	Edge   []float64

	// Randomized is set when a randomized scorer contributed.
	Randomized bool
}
