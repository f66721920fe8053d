package core

import (
	"errors"

	"github.com/katalvlaran/fragtree/formula"
)

// Sentinel errors for graph construction, tree validation and solving.
var (
	// ErrVertexNotFound indicates a reference to a vertex index outside the graph.
	ErrVertexNotFound = errors.New("core: vertex not found")

	// ErrEdgeNotFound indicates a reference to a loss index outside the graph.
	ErrEdgeNotFound = errors.New("core: edge not found")

	// ErrLoopNotAllowed indicates a loss whose head and tail coincide.
	ErrLoopNotAllowed = errors.New("core: self-loop not allowed")

	// ErrDuplicateLoss indicates a second loss between the same ordered pair.
	ErrDuplicateLoss = errors.New("core: duplicate loss")

	// ErrNoRoot indicates Build was called before SetRoot.
	ErrNoRoot = errors.New("core: root not set")

	// ErrLossIntoRoot indicates a loss whose tail is the root.
	ErrLossIntoRoot = errors.New("core: loss into root")

	// ErrCycle indicates the candidate graph contains a directed cycle.
	ErrCycle = errors.New("core: cycle detected")

	// ErrBadWeight indicates a NaN or infinite vertex or edge weight.
	ErrBadWeight = errors.New("core: weight must be finite")

	// ErrInvalidTree indicates an edge selection violating the tree invariants.
	ErrInvalidTree = errors.New("core: invalid tree")

	// ErrBadOptions indicates invalid solve options.
	ErrBadOptions = errors.New("core: invalid options")

	// ErrInfeasible indicates that a backend produced no tree at all. The
	// root-only tree is always feasible, so this is an internal defect.
	ErrInfeasible = errors.New("core: infeasible")

	// ErrDumpFormat indicates malformed debug dump input.
	ErrDumpFormat = errors.New("core: malformed dump")
)

// Color identifies one observed spectral peak. All candidate fragments that
// explain the same peak share a color.
type Color int

// Fragment is a candidate vertex: a molecular formula explaining one peak.
type Fragment struct {
	// Formula is the candidate molecular formula.
	Formula formula.Formula

	// Peak is the index of the explained peak in the processed spectrum,
	// or -1 when the vertex does not stem from a spectrum.
	Peak int

	// Color is the coloring used by the colorfulness constraint.
	Color Color

	// Weight is the reduced vertex score.
	Weight float64
}

// Loss is a directed candidate edge from a parent fragment (Head) to a child
// fragment (Tail).
type Loss struct {
	Head int
	Tail int

	// Formula is the neutral loss Head − Tail; empty when unknown.
	Formula formula.Formula

	// Weight is the reduced edge score.
	Weight float64
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCapacity preallocates room for the given number of fragments and losses.
func WithCapacity(fragments, losses int) BuilderOption {
	return func(b *Builder) {
		if fragments > 0 {
			b.fragments = make([]Fragment, 0, fragments)
		}
		if losses > 0 {
			b.losses = make([]Loss, 0, losses)
			b.pairs = make(map[[2]int]struct{}, losses)
		}
	}
}
