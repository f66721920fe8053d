package dp

import (
	"errors"
	"fmt"
)

// Name is the backend name of the DP solver.
const Name = "dp"

const (
	// DefaultMaxColors bounds the number of non-root colors the program accepts.
	DefaultMaxColors = 16

	// maxColorBits is the hard ceiling for WithMaxColors.
	maxColorBits = 24

	// checkEvery is the number of inner steps between deadline checks.
	checkEvery = 4096
)

var (
	// ErrTooManyColors is matched by *ColorLimitError.
	ErrTooManyColors = errors.New("dp: too many colors")

	// ErrBadK indicates a non-positive tree count.
	ErrBadK = errors.New("dp: k must be positive")
)

// ColorLimitError reports a graph refused because of its color count.
type ColorLimitError struct {
	Colors int // non-root colors of the graph
	Max    int // configured cap
}

func (e *ColorLimitError) Error() string {
	return fmt.Sprintf("dp: graph has %d colors, cap is %d", e.Colors, e.Max)
}

// Is makes errors.Is(err, ErrTooManyColors) hold.
func (e *ColorLimitError) Is(target error) bool { return target == ErrTooManyColors }

// Overflow selects the behavior for graphs above the color cap.
type Overflow int

const (
	// Refuse returns a *ColorLimitError.
	Refuse Overflow = iota

	// AttachGreedily solves over the most promising MaxColors colors and
	// inserts the remaining vertices greedily.
	AttachGreedily
)

// Option configures a Solver.
type Option func(*Solver)

// WithMaxColors sets the color cap, clamped to [1, 24].
func WithMaxColors(n int) Option {
	return func(s *Solver) {
		switch {
		case n < 1:
			n = 1
		case n > maxColorBits:
			n = maxColorBits
		}
		s.maxColors = n
	}
}

// WithOverflow sets the policy for graphs above the color cap.
func WithOverflow(p Overflow) Option {
	return func(s *Solver) { s.overflow = p }
}
