package scoring_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/formula"
	"github.com/katalvlaran/fragtree/scoring"
	"github.com/katalvlaran/fragtree/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hexose returns a spectrum of protonated glucose and three fragments plus
// candidates for each peak; candidate 4 (C7H14O4) cannot descend from the root.
func hexose(t *testing.T) (*spectrum.Spectrum, []scoring.Candidate) {
	t.Helper()
	names := []string{"C6H12O6", "C6H10O5", "C6H8O4", "C5H8O4"}
	peaks := make([]spectrum.Peak, len(names))
	cands := make([]scoring.Candidate, 0, len(names)+1)
	for i, n := range names {
		f := formula.MustParse(n)
		peaks[i] = spectrum.Peak{ID: i, Mass: f.Mass() + spectrum.ProtonMass, Intensity: float64(100 - 10*i)}
		cands = append(cands, scoring.Candidate{Formula: f, Peak: i})
	}
	cands = append(cands, scoring.Candidate{Formula: formula.MustParse("C7H14O4"), Peak: 1})
	s, err := spectrum.New(peaks)
	require.NoError(t, err)
	return s, cands
}

type coin struct{}

func (coin) Name() string                              { return "coin" }
func (coin) ScorePeak(*spectrum.Spectrum, int) float64 { return 1 }
func (coin) Randomized() bool                          { return true }

type broken struct{ panics bool }

func (b broken) Name() string { return "broken" }
func (b broken) ScoreFragment(*spectrum.Spectrum, int, formula.Formula) float64 {
	if b.panics {
		panic("boom")
	}
	return math.NaN()
}

type nameOnly struct{}

func (nameOnly) Name() string { return "name_only" }

func TestSet_Register(t *testing.T) {
	set := scoring.NewSet()
	require.NoError(t, set.Register(scoring.MassDeviation{}))
	require.NoError(t, set.Register(scoring.CollisionEnergy{Penalty: 1}))

	assert.ErrorIs(t, set.Register(scoring.MassDeviation{}), scoring.ErrDuplicateScorer)
	assert.ErrorIs(t, set.Register(nameOnly{}), scoring.ErrNoCapability)
	assert.ErrorIs(t, set.Register(coin{}), scoring.ErrRandomizedScorer)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []scoring.Kind{scoring.KindFragment, scoring.KindPeakPair}, set.Kinds())
	assert.Equal(t, []string{"mass_deviation", "collision_energy"}, set.Names())
	assert.Equal(t, "peak_pair", scoring.KindPeakPair.String())
	assert.False(t, set.Randomized())

	assert.Equal(t, 6, scoring.Default().Len())
}

// TestBuildGraph_Hexose enumerates losses, prunes the unreachable candidate
// and produces identical weights on repeated runs.
func TestBuildGraph_Hexose(t *testing.T) {
	s, cands := hexose(t)
	set := scoring.Default()

	g, err := scoring.BuildGraph(s, cands, 0, set)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, 6, g.NumEdges())
	assert.Equal(t, 4, g.NumColors())
	for v := 0; v < g.NumVertices(); v++ {
		assert.Equal(t, core.Color(g.Fragment(v).Peak), g.Color(v))
	}
	e, ok := g.FindLoss(0, 1)
	require.True(t, ok)
	assert.Equal(t, "H2O", g.Loss(e).Formula.String())

	g2, err := scoring.BuildGraph(s, cands, 0, set)
	require.NoError(t, err)
	weights := func(g *core.Graph) []float64 {
		var out []float64
		for v := 0; v < g.NumVertices(); v++ {
			out = append(out, g.VertexWeight(v))
		}
		for e := 0; e < g.NumEdges(); e++ {
			out = append(out, g.EdgeWeight(e))
		}
		return out
	}
	if diff := cmp.Diff(weights(g), weights(g2)); diff != "" {
		t.Errorf("reduction not deterministic (-first +second):\n%s", diff)
	}

	small, err := scoring.BuildGraph(s, cands, 0, set, scoring.WithMaxLossMass(20))
	require.NoError(t, err)
	assert.Equal(t, 3, small.NumEdges(), "only H2O, H2O and C survive")
}

func TestReduce_Errors(t *testing.T) {
	s, cands := hexose(t)

	_, err := scoring.Reduce(s, cands, nil, scoring.NewSet().MustRegister(broken{}))
	assert.ErrorIs(t, err, scoring.ErrBadScore)

	_, err = scoring.Reduce(s, []scoring.Candidate{{Peak: 9}}, nil, scoring.NewSet())
	assert.ErrorIs(t, err, scoring.ErrBadCandidate)

	_, err = scoring.Reduce(s, cands, []scoring.Edge{{Head: 1, Tail: 0}}, scoring.NewSet())
	assert.ErrorIs(t, err, scoring.ErrBadCandidate, "child is not contained in parent")

	_, err = scoring.BuildGraph(s, cands, 7, scoring.NewSet())
	assert.ErrorIs(t, err, scoring.ErrBadCandidate)

	_, err = scoring.Reduce(s, cands, nil, nil)
	assert.ErrorIs(t, err, scoring.ErrNilInput)
	_, err = scoring.Reduce(nil, cands, nil, scoring.NewSet())
	assert.ErrorIs(t, err, scoring.ErrNilInput)
	_, err = scoring.BuildGraph(s, cands, 0, nil)
	assert.ErrorIs(t, err, scoring.ErrNilInput)

	rnd := scoring.NewSet(scoring.WithRandomized()).MustRegister(coin{})
	w, err := scoring.Reduce(s, cands[:2], nil, rnd)
	require.NoError(t, err)
	assert.True(t, w.Randomized)
	assert.Equal(t, []float64{1, 1}, w.Vertex)
}

// TestBreakdown_Neutral checks per-scorer contributions, including scorers
// that were not part of the reduction and scorers that fail.
func TestBreakdown_Neutral(t *testing.T) {
	s, cands := hexose(t)
	g, err := scoring.BuildGraph(s, cands, 0, scoring.Default())
	require.NoError(t, err)
	e, ok := g.FindLoss(0, 1)
	require.True(t, ok)
	tr, err := core.NewTree(g, []int{e})
	require.NoError(t, err)
	score := tr.Score()

	set := scoring.NewSet().MustRegister(
		scoring.CommonLosses{Table: scoring.DefaultCommonLosses()},
		broken{panics: true},
	)
	bd, err := scoring.Breakdown(tr, s, set)
	require.NoError(t, err)

	require.Same(t, bd, tr.Breakdown())
	v, ok := bd.Edge("common_losses", e)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	total, ok := bd.Total("broken")
	require.True(t, ok)
	assert.Zero(t, total)
	assert.Equal(t, score, tr.Score())

	_, err = scoring.Breakdown(tr, s, nil)
	assert.ErrorIs(t, err, scoring.ErrNilInput)
	_, err = scoring.Breakdown(nil, s, set)
	assert.ErrorIs(t, err, scoring.ErrNilInput)
	assert.Same(t, bd, tr.Breakdown(), "a failed call leaves the attached breakdown alone")
}
