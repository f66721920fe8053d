// Package spectrum models the processed MS/MS spectrum handed to the
// fragmentation-tree engine by upstream preprocessing: a merged, centroided peak
// list with per-peak identity plus the mass-deviation profile of the instrument.
//
// Peak picking, merging and recalibration happen elsewhere; this package only
// validates and normalizes what it is given.
package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/fragtree/formula"
)

// ProtonMass is the mass added to a neutral formula for [M+H]+ ions.
const ProtonMass = 1.00727646688

// Sentinel errors for spectrum validation.
var (
	// ErrEmpty indicates a spectrum without peaks.
	ErrEmpty = errors.New("spectrum: no peaks")

	// ErrBadPeak indicates a peak with a non-positive or non-finite mass, or a
	// negative or non-finite intensity.
	ErrBadPeak = errors.New("spectrum: invalid peak")

	// ErrParentOutOfRange indicates a parent peak index outside the peak list.
	ErrParentOutOfRange = errors.New("spectrum: parent peak out of range")
)

// Deviation is a mass tolerance: the larger of a relative (ppm) and an absolute part.
type Deviation struct {
	PPM      float64 `yaml:"ppm"`
	Absolute float64 `yaml:"absolute"`
}

// At returns the absolute tolerance at the given mass.
func (d Deviation) At(mass float64) float64 {
	return math.Max(d.PPM*mass*1e-6, d.Absolute)
}

// Range is a closed interval, used for collision energies. The zero value means unknown.
type Range struct {
	Min float64
	Max float64
}

// Known reports whether the range carries information.
func (r Range) Known() bool { return r != Range{} }

// Peak is one merged spectral peak.
type Peak struct {
	// ID identifies the peak in the upstream merged peak list.
	ID int

	// Mass is the observed m/z.
	Mass float64

	// Intensity is the absolute merged intensity.
	Intensity float64

	// RelativeIntensity is Intensity divided by the base-peak intensity; set by New.
	RelativeIntensity float64

	// CollisionEnergy is the range of energies at which the peak was observed.
	CollisionEnergy Range
}

// Profile carries instrument-dependent parameters used by scorers.
type Profile struct {
	// AllowedDeviation bounds the mass error for a formula to explain a peak.
	AllowedDeviation Deviation

	// StandardDeviation is the expected spread of mass errors.
	StandardDeviation Deviation

	// NoiseLevel is the relative intensity below which peaks are considered noise.
	NoiseLevel float64
}

// DefaultProfile returns the profile of a typical Q-TOF instrument.
func DefaultProfile() Profile {
	return Profile{
		AllowedDeviation:  Deviation{PPM: 10, Absolute: 0.002},
		StandardDeviation: Deviation{PPM: 10.0 / 3, Absolute: 0.002 / 3},
		NoiseLevel:        0.002,
	}
}

// Spectrum is a validated, normalized processed spectrum.
type Spectrum struct {
	Peaks      []Peak
	Profile    Profile
	IonMass    float64
	ParentPeak int
}

// Option configures a Spectrum in New.
type Option func(*Spectrum)

// WithProfile sets the deviation profile.
func WithProfile(p Profile) Option { return func(s *Spectrum) { s.Profile = p } }

// WithIonMass sets the mass added to neutral formulas (default ProtonMass).
func WithIonMass(m float64) Option { return func(s *Spectrum) { s.IonMass = m } }

// WithParentPeak sets the index of the precursor peak (default: heaviest peak).
func WithParentPeak(i int) Option { return func(s *Spectrum) { s.ParentPeak = i } }

// New validates peaks and computes relative intensities. The peak slice is copied.
//
// Complexity: O(P).
func New(peaks []Peak, opts ...Option) (*Spectrum, error) {
	if len(peaks) == 0 {
		return nil, ErrEmpty
	}
	s := &Spectrum{
		Peaks:      append([]Peak(nil), peaks...),
		Profile:    DefaultProfile(),
		IonMass:    ProtonMass,
		ParentPeak: -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	var maxIntensity float64
	heaviest := 0
	for i, p := range s.Peaks {
		if !(p.Mass > 0) || math.IsInf(p.Mass, 0) || p.Intensity < 0 || math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) {
			return nil, fmt.Errorf("%w: index %d (mass=%v, intensity=%v)", ErrBadPeak, i, p.Mass, p.Intensity)
		}
		if p.Intensity > maxIntensity {
			maxIntensity = p.Intensity
		}
		if p.Mass > s.Peaks[heaviest].Mass {
			heaviest = i
		}
	}
	if s.ParentPeak == -1 {
		s.ParentPeak = heaviest
	}
	if s.ParentPeak < 0 || s.ParentPeak >= len(s.Peaks) {
		return nil, fmt.Errorf("%w: %d of %d", ErrParentOutOfRange, s.ParentPeak, len(s.Peaks))
	}
	for i := range s.Peaks {
		if maxIntensity > 0 {
			s.Peaks[i].RelativeIntensity = s.Peaks[i].Intensity / maxIntensity
		} else {
			s.Peaks[i].RelativeIntensity = 0
		}
	}

	return s, nil
}

// Len returns the number of peaks.
func (s *Spectrum) Len() int { return len(s.Peaks) }

// MzOf returns the m/z at which the ion of the neutral formula f is expected.
func (s *Spectrum) MzOf(f formula.Formula) float64 { return f.Mass() + s.IonMass }

// Explains reports whether formula f explains peak i within the allowed deviation.
func (s *Spectrum) Explains(i int, f formula.Formula) bool {
	if i < 0 || i >= len(s.Peaks) {
		return false
	}
	p := s.Peaks[i]
	return math.Abs(p.Mass-s.MzOf(f)) <= s.Profile.AllowedDeviation.At(p.Mass)
}
