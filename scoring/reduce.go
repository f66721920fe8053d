package scoring

import (
	"fmt"
	"math"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/spectrum"
)

// Reduce computes one weight per candidate and one per edge.
//
// Errors: ErrNilInput for a nil s or set, ErrBadCandidate for peaks outside
// s or edges outside cands, ErrBadScore when a scorer returns a non-finite
// value.
//
// Complexity: O((V + E) · |set|) scorer calls.
func Reduce(s *spectrum.Spectrum, cands []Candidate, edges []Edge, set *Set) (*Weights, error) {
	if s == nil || set == nil {
		return nil, fmt.Errorf("%w: reduce needs a spectrum and a scorer set", ErrNilInput)
	}
	w := &Weights{
		Vertex:     make([]float64, len(cands)),
		Edge:       make([]float64, len(edges)),
		Randomized: set.randomized,
	}

	// 1. Vertices.
	for i, c := range cands {
		if c.Peak < 0 || c.Peak >= s.Len() {
			return nil, fmt.Errorf("%w: candidate %d explains peak %d of %d", ErrBadCandidate, i, c.Peak, s.Len())
		}
		var sum float64
		for _, sc := range set.fragment {
			x := sc.ScoreFragment(s, c.Peak, c.Formula)
			if err := finite(x, sc, "candidate", i); err != nil {
				return nil, err
			}
			sum += x
		}
		for _, sc := range set.peak {
			x := sc.ScorePeak(s, c.Peak)
			if err := finite(x, sc, "candidate", i); err != nil {
				return nil, err
			}
			sum += x
		}
		w.Vertex[i] = sum
	}

	// 2. Edges.
	for i, e := range edges {
		if e.Head < 0 || e.Head >= len(cands) || e.Tail < 0 || e.Tail >= len(cands) {
			return nil, fmt.Errorf("%w: edge %d (%d→%d)", ErrBadCandidate, i, e.Head, e.Tail)
		}
		parent, child := cands[e.Head], cands[e.Tail]
		loss, err := parent.Formula.Sub(child.Formula)
		if err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrBadCandidate, i, err)
		}
		var sum float64
		for _, sc := range set.loss {
			x := sc.ScoreLoss(s, parent.Formula, child.Formula, loss)
			if err := finite(x, sc, "edge", i); err != nil {
				return nil, err
			}
			sum += x
		}
		for _, sc := range set.pair {
			x := sc.ScorePeakPair(s, parent.Peak, child.Peak)
			if err := finite(x, sc, "edge", i); err != nil {
				return nil, err
			}
			sum += x
		}
		w.Edge[i] = sum
	}

	return w, nil
}

func finite(x float64, sc Scorer, what string, i int) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("%w: %s on %s %d = %v", ErrBadScore, sc.Name(), what, i, x)
	}
	return nil
}

// GraphOption configures BuildGraph.
type GraphOption func(*graphConfig)

type graphConfig struct {
	maxLossMass float64 // 0 = unbounded
}

// WithMaxLossMass limits enumerated losses to the given neutral mass.
func WithMaxLossMass(m float64) GraphOption {
	return func(c *graphConfig) { c.maxLossMass = m }
}

// EnumerateEdges lists candidate losses: parent → child whenever the child
// formula is a proper subformula of the parent's, the child explains a
// strictly lighter peak, and the loss mass respects WithMaxLossMass. Edges
// into root are never produced. The result is ordered by (head, tail).
//
// Complexity: O(V²).
func EnumerateEdges(s *spectrum.Spectrum, cands []Candidate, root int, opts ...GraphOption) []Edge {
	cfg := graphConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var out []Edge
	for i, p := range cands {
		for j, c := range cands {
			if j == root || i == j || c.Peak < 0 || p.Peak < 0 || c.Peak >= s.Len() || p.Peak >= s.Len() {
				continue
			}
			if !(s.Peaks[c.Peak].Mass < s.Peaks[p.Peak].Mass) || !c.Formula.IsSubformulaOf(p.Formula) {
				continue
			}
			if cfg.maxLossMass > 0 && p.Formula.Mass()-c.Formula.Mass() > cfg.maxLossMass {
				continue
			}
			out = append(out, Edge{Head: i, Tail: j})
		}
	}
	return out
}

// BuildGraph enumerates losses, reduces weights with set and returns the
// candidate graph rooted at cands[root]. Vertex colors are peak indices.
// Candidates unreachable from the root are pruned by core.Builder.
func BuildGraph(s *spectrum.Spectrum, cands []Candidate, root int, set *Set, opts ...GraphOption) (*core.Graph, error) {
	if root < 0 || root >= len(cands) {
		return nil, fmt.Errorf("%w: root %d of %d candidates", ErrBadCandidate, root, len(cands))
	}
	edges := EnumerateEdges(s, cands, root, opts...)
	w, err := Reduce(s, cands, edges, set)
	if err != nil {
		return nil, err
	}

	b := core.NewBuilder(core.WithCapacity(len(cands), len(edges)))
	for i, c := range cands {
		b.AddFragment(core.Fragment{Formula: c.Formula, Peak: c.Peak, Color: core.Color(c.Peak), Weight: w.Vertex[i]})
	}
	for i, e := range edges {
		loss, _ := cands[e.Head].Formula.Sub(cands[e.Tail].Formula)
		if _, err := b.AddLoss(core.Loss{Head: e.Head, Tail: e.Tail, Formula: loss, Weight: w.Edge[i]}); err != nil {
			return nil, err
		}
	}
	if err := b.SetRoot(root); err != nil {
		return nil, err
	}
	return b.Build()
}
