package heuristic

import (
	"errors"
	"sync/atomic"
	"time"
)

// Backend names.
const (
	NameCriticalPath = "critical-path"
	NamePrimEdge     = "prim-edge"
	NamePrimStar     = "prim-star"
	NameInsertion    = "insertion"
)

// ErrBadK indicates a non-positive tree count.
var ErrBadK = errors.New("heuristic: k must be positive")

const (
	// DefaultRestarts is the number of Prim restarts.
	DefaultRestarts = 8

	// DefaultNoise is the relative key noise of Prim restarts after the first.
	DefaultNoise = 0.15

	// checkEvery is the number of frontier pops between deadline checks.
	checkEvery = 256
)

// timer accumulates running time across calls.
type timer struct {
	total atomic.Int64
}

func (t *timer) add(d time.Duration) { t.total.Add(int64(d)) }

// Elapsed returns the cumulative running time of all calls so far.
func (t *timer) Elapsed() time.Duration { return time.Duration(t.total.Load()) }

// Variant selects the Prim growth policy.
type Variant int

const (
	// PrimEdge grows one edge at a time.
	PrimEdge Variant = iota

	// PrimStar attaches a vertex together with its positive children.
	PrimStar
)

// PrimOption configures a Prim heuristic.
type PrimOption func(*Prim)

// WithRestarts sets the number of restarts (at least 1).
func WithRestarts(n int) PrimOption {
	return func(p *Prim) {
		if n < 1 {
			n = 1
		}
		p.restarts = n
	}
}

// WithNoise sets the relative key noise for restarts after the first.
func WithNoise(x float64) PrimOption {
	return func(p *Prim) {
		if x < 0 {
			x = 0
		}
		p.noise = x
	}
}
