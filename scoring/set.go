package scoring

import "fmt"

// Set is a registered collection of scorers, resolved by capability.
// A Set is not safe for concurrent Register; concurrent reads are fine.
type Set struct {
	order []Scorer
	names map[string]struct{}

	fragment []FragmentScorer
	loss     []LossScorer
	peak     []PeakScorer
	pair     []PeakPairScorer

	allowRandomized bool
	randomized      bool
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithRandomized permits scorers that report themselves randomized.
func WithRandomized() SetOption {
	return func(s *Set) { s.allowRandomized = true }
}

// NewSet returns an empty Set.
func NewSet(opts ...SetOption) *Set {
	s := &Set{names: make(map[string]struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds sc under every capability it implements.
//
// Errors: ErrDuplicateScorer, ErrNoCapability, ErrRandomizedScorer.
func (s *Set) Register(sc Scorer) error {
	name := sc.Name()
	if _, dup := s.names[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateScorer, name)
	}
	rnd := false
	if r, ok := sc.(Randomized); ok && r.Randomized() {
		if !s.allowRandomized {
			return fmt.Errorf("%w: %q", ErrRandomizedScorer, name)
		}
		rnd = true
	}

	matched := false
	if f, ok := sc.(FragmentScorer); ok {
		s.fragment = append(s.fragment, f)
		matched = true
	}
	if l, ok := sc.(LossScorer); ok {
		s.loss = append(s.loss, l)
		matched = true
	}
	if p, ok := sc.(PeakScorer); ok {
		s.peak = append(s.peak, p)
		matched = true
	}
	if pp, ok := sc.(PeakPairScorer); ok {
		s.pair = append(s.pair, pp)
		matched = true
	}
	if !matched {
		return fmt.Errorf("%w: %q", ErrNoCapability, name)
	}
	s.names[name] = struct{}{}
	s.order = append(s.order, sc)
	s.randomized = s.randomized || rnd

	return nil
}

// MustRegister is like Register but panics on error.
func (s *Set) MustRegister(scorers ...Scorer) *Set {
	for _, sc := range scorers {
		if err := s.Register(sc); err != nil {
			panic(err)
		}
	}
	return s
}

// Len returns the number of registered scorers.
func (s *Set) Len() int { return len(s.order) }

// Names returns scorer names in registration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	for i, sc := range s.order {
		out[i] = sc.Name()
	}
	return out
}

// Kinds returns the capabilities present in the set, ascending.
func (s *Set) Kinds() []Kind {
	var ks []Kind
	if len(s.fragment) > 0 {
		ks = append(ks, KindFragment)
	}
	if len(s.loss) > 0 {
		ks = append(ks, KindLoss)
	}
	if len(s.peak) > 0 {
		ks = append(ks, KindPeak)
	}
	if len(s.pair) > 0 {
		ks = append(ks, KindPeakPair)
	}
	return ks
}

// Randomized reports whether a randomized scorer is registered.
func (s *Set) Randomized() bool { return s.randomized }

// Default returns a Set with the built-in scorers and their default parameters.
func Default() *Set {
	return NewSet().MustRegister(
		MassDeviation{},
		RDBE{Penalty: 5},
		CommonLosses{Table: DefaultCommonLosses()},
		LossSize{Mu: 4.0, Sigma: 0.6},
		PeakIntensity{},
		CollisionEnergy{Penalty: 3},
	)
}
