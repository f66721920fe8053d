package scoring

import (
	"math"

	"github.com/katalvlaran/fragtree/formula"
	"github.com/katalvlaran/fragtree/spectrum"
)

// minLogScore bounds log-probabilities so that hopeless candidates stay finite.
const minLogScore = -100.0

func clampLog(p float64) float64 {
	if p <= 0 {
		return minLogScore
	}
	return math.Max(math.Log(p), minLogScore)
}

// MassDeviation scores the mass error of a formula against its peak as the
// two-sided tail probability of a normal error with the profile's standard
// deviation: log erfc(|Δ| / (σ√2)).
type MassDeviation struct{}

// Name implements Scorer.
func (MassDeviation) Name() string { return "mass_deviation" }

// ScoreFragment implements FragmentScorer.
func (MassDeviation) ScoreFragment(s *spectrum.Spectrum, peak int, f formula.Formula) float64 {
	p := s.Peaks[peak]
	sd := s.Profile.StandardDeviation.At(p.Mass)
	if sd <= 0 {
		return 0
	}
	delta := math.Abs(p.Mass - s.MzOf(f))
	return clampLog(math.Erfc(delta / (sd * math.Sqrt2)))
}

// RDBE penalizes formulas with a chemically impossible (negative)
// ring-double-bond equivalent.
type RDBE struct {
	Penalty float64
}

// Name implements Scorer.
func (RDBE) Name() string { return "rdbe" }

// ScoreFragment implements FragmentScorer.
func (r RDBE) ScoreFragment(_ *spectrum.Spectrum, _ int, f formula.Formula) float64 {
	if f.IsEmpty() || f.RDBE() >= -0.5 {
		return 0
	}
	return -r.Penalty
}

// CommonLosses rewards neutral losses from a table of frequently observed ones.
type CommonLosses struct {
	Table map[formula.Formula]float64
}

// DefaultCommonLosses returns log-odds bonuses for frequent small losses.
func DefaultCommonLosses() map[formula.Formula]float64 {
	return map[formula.Formula]float64{
		formula.MustParse("H2O"):   1.0,
		formula.MustParse("CO"):    0.8,
		formula.MustParse("CO2"):   0.8,
		formula.MustParse("NH3"):   0.6,
		formula.MustParse("CH2O"):  0.5,
		formula.MustParse("C2H4"):  0.5,
		formula.MustParse("CH4O"):  0.4,
		formula.MustParse("C2H2O"): 0.4,
		formula.MustParse("HCl"):   0.3,
		formula.MustParse("H3PO4"): 0.3,
	}
}

// Name implements Scorer.
func (CommonLosses) Name() string { return "common_losses" }

// ScoreLoss implements LossScorer.
func (c CommonLosses) ScoreLoss(_ *spectrum.Spectrum, _, _, loss formula.Formula) float64 {
	return c.Table[loss]
}

// LossSize scores the loss mass with a log-normal density, shifted so that
// the mode scores 0.
type LossSize struct {
	Mu    float64
	Sigma float64
}

// Name implements Scorer.
func (LossSize) Name() string { return "loss_size" }

// ScoreLoss implements LossScorer.
func (l LossSize) ScoreLoss(_ *spectrum.Spectrum, _, _, loss formula.Formula) float64 {
	m := loss.Mass()
	if m <= 0 || l.Sigma <= 0 {
		return 0
	}
	logPDF := func(x float64) float64 {
		z := (math.Log(x) - l.Mu) / l.Sigma
		return -math.Log(x) - z*z/2
	}
	mode := math.Exp(l.Mu - l.Sigma*l.Sigma)
	return logPDF(m) - logPDF(mode)
}

// PeakIntensity rewards peaks by their intensity relative to the noise
// level: log(relative intensity / noise), clamped to [-5, 5].
type PeakIntensity struct{}

// Name implements Scorer.
func (PeakIntensity) Name() string { return "peak_intensity" }

// ScorePeak implements PeakScorer.
func (PeakIntensity) ScorePeak(s *spectrum.Spectrum, peak int) float64 {
	noise := s.Profile.NoiseLevel
	if noise <= 0 {
		return 0
	}
	x := math.Log(math.Max(s.Peaks[peak].RelativeIntensity, 1e-12) / noise)
	return math.Max(-5, math.Min(5, x))
}

// CollisionEnergy penalizes a child peak that was only observed at
// collision energies strictly below every energy its parent was seen at.
type CollisionEnergy struct {
	Penalty float64
}

// Name implements Scorer.
func (CollisionEnergy) Name() string { return "collision_energy" }

// ScorePeakPair implements PeakPairScorer.
func (c CollisionEnergy) ScorePeakPair(s *spectrum.Spectrum, parent, child int) float64 {
	pe, ce := s.Peaks[parent].CollisionEnergy, s.Peaks[child].CollisionEnergy
	if !pe.Known() || !ce.Known() {
		return 0
	}
	if ce.Max < pe.Min {
		return -c.Penalty
	}
	return 0
}
