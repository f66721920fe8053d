package scoring_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/fragtree/formula"
	"github.com/katalvlaran/fragtree/scoring"
	"github.com/katalvlaran/fragtree/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMassDeviation(t *testing.T) {
	f := formula.MustParse("C6H12O6")
	mz := f.Mass() + spectrum.ProtonMass
	s, err := spectrum.New([]spectrum.Peak{{Mass: mz, Intensity: 1}, {Mass: mz + 0.002, Intensity: 1}, {Mass: mz + 1, Intensity: 1}})
	require.NoError(t, err)

	var md scoring.MassDeviation
	assert.InDelta(t, 0.0, md.ScoreFragment(s, 0, f), 1e-12)

	sd := s.Profile.StandardDeviation.At(mz + 0.002)
	want := math.Log(math.Erfc(0.002 / (sd * math.Sqrt2)))
	assert.InDelta(t, want, md.ScoreFragment(s, 1, f), 1e-9)
	assert.Less(t, md.ScoreFragment(s, 1, f), 0.0)
	assert.Equal(t, -100.0, md.ScoreFragment(s, 2, f), "hopeless candidates are clamped")
}

func TestLossScorers(t *testing.T) {
	ls := scoring.LossSize{Mu: 4, Sigma: 0.6}
	water := formula.MustParse("H2O")
	assert.LessOrEqual(t, ls.ScoreLoss(nil, formula.Formula{}, formula.Formula{}, water), 0.0)
	assert.Zero(t, ls.ScoreLoss(nil, formula.Formula{}, formula.Formula{}, formula.Formula{}))

	cl := scoring.CommonLosses{Table: scoring.DefaultCommonLosses()}
	assert.Equal(t, 1.0, cl.ScoreLoss(nil, formula.Formula{}, formula.Formula{}, water))
	assert.Zero(t, cl.ScoreLoss(nil, formula.Formula{}, formula.Formula{}, formula.MustParse("C9")))
}

func TestRDBEAndPeakScorers(t *testing.T) {
	r := scoring.RDBE{Penalty: 5}
	assert.Equal(t, -5.0, r.ScoreFragment(nil, 0, formula.MustParse("C2H10")))
	assert.Zero(t, r.ScoreFragment(nil, 0, formula.MustParse("C6H6")))

	s, err := spectrum.New([]spectrum.Peak{
		{Mass: 200, Intensity: 100, CollisionEnergy: spectrum.Range{Min: 20, Max: 40}},
		{Mass: 100, Intensity: 0.0001, CollisionEnergy: spectrum.Range{Min: 5, Max: 10}},
		{Mass: 90, Intensity: 10},
	})
	require.NoError(t, err)

	var pi scoring.PeakIntensity
	assert.Equal(t, 5.0, pi.ScorePeak(s, 0))
	assert.Equal(t, -5.0, pi.ScorePeak(s, 1))

	ce := scoring.CollisionEnergy{Penalty: 3}
	assert.Equal(t, -3.0, ce.ScorePeakPair(s, 0, 1))
	assert.Zero(t, ce.ScorePeakPair(s, 0, 2), "unknown energies are neutral")
}
