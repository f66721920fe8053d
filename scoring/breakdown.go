package scoring

import (
	"fmt"
	"math"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/spectrum"
)

// Breakdown recomputes the per-scorer contribution to every vertex and edge
// of t, attaches the result to t and returns it. Vertices without a valid
// peak, scorers of the wrong kind, panicking scorers and non-finite values
// all contribute 0. A nil t or set yields ErrNilInput.
//
// Complexity: O((V_t + E_t) · |set|) scorer calls.
func Breakdown(t *core.Tree, s *spectrum.Spectrum, set *Set) (*core.ScoreBreakdown, error) {
	if t == nil || set == nil {
		return nil, fmt.Errorf("%w: breakdown needs a tree and a scorer set", ErrNilInput)
	}
	bd := core.NewScoreBreakdown(t, set.Names())
	g := t.Graph()
	for row, sc := range set.order {
		fs, isFragment := sc.(FragmentScorer)
		ps, isPeak := sc.(PeakScorer)
		ls, isLoss := sc.(LossScorer)
		pp, isPair := sc.(PeakPairScorer)

		for col, v := range bd.Vertices {
			f := g.Fragment(v)
			if !validPeak(s, f.Peak) {
				continue
			}
			var x float64
			if isFragment {
				x += neutral(func() float64 { return fs.ScoreFragment(s, f.Peak, f.Formula) })
			}
			if isPeak {
				x += neutral(func() float64 { return ps.ScorePeak(s, f.Peak) })
			}
			bd.VertexScores[row][col] = x
		}

		for col, e := range bd.Edges {
			l := g.Loss(e)
			parent, child := g.Fragment(l.Head), g.Fragment(l.Tail)
			var x float64
			if isLoss {
				loss := l.Formula
				if loss.IsEmpty() {
					loss, _ = parent.Formula.Sub(child.Formula)
				}
				x += neutral(func() float64 { return ls.ScoreLoss(s, parent.Formula, child.Formula, loss) })
			}
			if isPair && validPeak(s, parent.Peak) && validPeak(s, child.Peak) {
				x += neutral(func() float64 { return pp.ScorePeakPair(s, parent.Peak, child.Peak) })
			}
			bd.EdgeScores[row][col] = x
		}
	}
	t.SetBreakdown(bd)

	return bd, nil
}

func validPeak(s *spectrum.Spectrum, p int) bool { return s != nil && p >= 0 && p < s.Len() }

// neutral evaluates fn and maps panics and non-finite results to 0.
func neutral(fn func() float64) (x float64) {
	defer func() {
		if recover() != nil {
			x = 0
		}
	}()
	x = fn()
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
