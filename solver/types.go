package solver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/metrics"
)

// Backend is anything that builds trees: the DP, a MILP engine adapter or a
// heuristic. Callers must honor ThreadSafe.
type Backend interface {
	Name() string
	ThreadSafe() bool
	ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error)
	ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error)
}

// Prober is implemented by backends whose availability must be checked at
// runtime (external binaries, native libraries, licenses).
type Prober interface {
	Probe(ctx context.Context) error
}

// Factory creates one backend instance. Non-thread-safe backends get one
// instance per pool slot.
type Factory func() (Backend, error)

var (
	// ErrNoBackend indicates that no registered backend is available. With
	// the heuristics registered this is a packaging error.
	ErrNoBackend = errors.New("solver: no backend available")

	// ErrUnknownBackend indicates a name that was never registered.
	ErrUnknownBackend = errors.New("solver: unknown backend")

	// ErrDuplicateBackend indicates a second registration under one name.
	ErrDuplicateBackend = errors.New("solver: duplicate backend")

	// ErrUnavailable indicates an explicitly requested backend whose probe
	// failed.
	ErrUnavailable = errors.New("solver: backend unavailable")

	// ErrBadPoolSize indicates a pool size below one.
	ErrBadPoolSize = errors.New("solver: pool size must be positive")
)

// State is the probe state of a registered backend.
type State int

const (
	// StateConfigured: registered, not probed yet.
	StateConfigured State = iota

	// StateProbed: a probe is running.
	StateProbed

	// StateAvailable: the probe succeeded.
	StateAvailable

	// StateUnavailable: the probe or the instance construction failed.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateProbed:
		return "probed"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultPriority is the resolution order: commercial MILP engine, bundled
// and open-source MILP engines, then the heuristics. "dp" is registered
// but only used when named explicitly or listed in a custom priority.
var DefaultPriority = []string{
	"gurobi",
	"highs",
	"cbc",
	"bnb",
	"critical-path",
	"insertion",
	"prim-star",
	"prim-edge",
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records probes, solves and fallbacks into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Registry) { r.metrics = c }
}

// WithPriority replaces DefaultPriority.
func WithPriority(names ...string) Option {
	return func(r *Registry) { r.priority = append([]string(nil), names...) }
}

// WithPoolSize sets the number of instances behind a non-thread-safe
// backend (default 1, which serializes it).
func WithPoolSize(n int) Option {
	return func(r *Registry) {
		if n < 1 {
			n = 1
		}
		r.poolSize = n
	}
}
