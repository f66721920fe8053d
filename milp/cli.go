package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"
)

// Runner executes an engine binary in dir and returns its combined output.
type Runner func(ctx context.Context, dir, bin string, args ...string) ([]byte, error)

// ExecRunner runs bin with os/exec.
func ExecRunner(ctx context.Context, dir, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// killGrace is how long an engine may overrun its own time limit before its
// process is killed.
const killGrace = 5 * time.Second

// CLIOption configures a command-line engine.
type CLIOption func(*cliEngine)

// WithBinary sets the engine executable (a name on PATH or a path).
func WithBinary(path string) CLIOption {
	return func(c *cliEngine) { c.bin = path }
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) CLIOption {
	return func(c *cliEngine) { c.run = r }
}

// WithLookPath replaces the binary lookup used by Probe.
func WithLookPath(f func(string) (string, error)) CLIOption {
	return func(c *cliEngine) { c.lookPath = f }
}

// WithBreaker sets the number of consecutive failed runs that opens the
// circuit and how long it stays open.
func WithBreaker(failures uint32, open time.Duration) CLIOption {
	return func(c *cliEngine) { c.tripAfter, c.openFor = failures, open }
}

// dialect is what differs between command-line engines.
type dialect interface {
	// args returns the command line for model file lp writing its solution
	// to sol; start, if not empty, is a warm start file.
	args(lp, sol, start string, limit time.Duration, threads int) []string

	// startFile writes a warm start in the engine's format and returns its
	// file name, or "" when the engine takes none.
	startFile(dir string, m *Model) (string, error)

	// parse reads the solution file and the engine output.
	parse(sol []byte, out []byte, m *Model) (Solution, error)

	// versionArgs returns the arguments of a cheap license-free run used by
	// Probe, or nil to probe by lookup only.
	versionArgs() []string
}

// cliEngine runs an external MILP binary on an LP file behind a circuit
// breaker.
type cliEngine struct {
	name       string
	bin        string
	threadSafe bool
	d          dialect
	run        Runner
	lookPath   func(string) (string, error)
	tripAfter  uint32
	openFor    time.Duration
	cb         *gobreaker.CircuitBreaker
}

func newCLIEngine(name, bin string, threadSafe bool, d dialect, opts []CLIOption) *cliEngine {
	c := &cliEngine{
		name:       name,
		bin:        bin,
		threadSafe: threadSafe,
		d:          d,
		run:        ExecRunner,
		lookPath:   exec.LookPath,
		tripAfter:  3,
		openFor:    time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: c.openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	return c
}

func (c *cliEngine) Name() string     { return c.name }
func (c *cliEngine) ThreadSafe() bool { return c.threadSafe }

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *cliEngine) BreakerState() string { return c.cb.State().String() }

// Probe locates the binary and, when the dialect has one, runs its version
// command.
func (c *cliEngine) Probe(ctx context.Context) error {
	path, err := c.lookPath(c.bin)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, c.name, err)
	}
	if va := c.d.versionArgs(); va != nil {
		pctx, cancel := context.WithTimeout(ctx, killGrace)
		defer cancel()
		if out, err := c.run(pctx, "", path, va...); err != nil {
			return fmt.Errorf("%w: %s: %v: %s", ErrEngineUnavailable, c.name, err, firstLine(out))
		}
	}
	return nil
}

// Solve writes m to a temporary directory, runs the engine and parses its
// solution. A tripped breaker reports ErrEngineUnavailable.
func (c *cliEngine) Solve(ctx context.Context, m *Model, p Params) (Solution, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.solve(ctx, m, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Solution{}, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, c.name, err)
	}
	if err != nil {
		return Solution{}, err
	}
	return res.(Solution), nil
}

func (c *cliEngine) solve(ctx context.Context, m *Model, p Params) (Solution, error) {
	dir, err := os.MkdirTemp("", "fragtree-"+c.name+"-")
	if err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	defer os.RemoveAll(dir)

	// 1. Model and warm start.
	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	f, err := os.Create(lpPath)
	if err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	if err := WriteLP(f, m); err != nil {
		f.Close()
		return Solution{}, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	if err := f.Close(); err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	start := ""
	if m.Start != nil {
		if start, err = c.d.startFile(dir, m); err != nil {
			return Solution{}, fmt.Errorf("%w: %v", ErrEngineFailed, err)
		}
	}

	// 2. Budget: the engine's own limit, plus a hard kill after a grace period.
	limit, limited := p.Deadline.Remaining()
	if limited && limit <= 0 {
		return Solution{Status: StatusTimeLimit}, nil
	}
	rctx := ctx
	if limited {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, limit+killGrace)
		defer cancel()
	}

	// 3. Run and parse.
	out, runErr := c.run(rctx, dir, c.bin, c.d.args(lpPath, solPath, start, limit, p.Threads)...)
	if rctx.Err() != nil {
		return Solution{Status: StatusTimeLimit}, nil
	}
	sol, _ := os.ReadFile(solPath)
	res, err := c.d.parse(sol, out, m)
	if err != nil {
		if runErr != nil {
			return Solution{}, fmt.Errorf("%w: %s: %v: %s", ErrEngineFailed, c.name, runErr, firstLine(out))
		}
		return Solution{}, err
	}
	return res, nil
}

// limitSeconds renders a time limit for engines that take seconds; 0 means
// unlimited.
func limitSeconds(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Max(d.Seconds(), 0.01)
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
