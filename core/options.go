package core

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ScoreTolerance is the absolute slack used when comparing scores against the
// floor and against reported objectives.
const ScoreTolerance = 1e-9

// Options is the solve request shared by every backend.
//
// The zero value means a floor of 0; use DefaultOptions for "no floor".
type Options struct {
	// MinScore is the score floor. A tree scoring below it is reported as
	// OutcomeNoSolutionAboveFloor; exact backends may prune against it.
	// math.Inf(-1) disables the floor.
	MinScore float64

	// TimeLimit bounds the wall-clock time of one solve; 0 means unlimited.
	TimeLimit time.Duration

	// Threads is the CPU hint forwarded to engines that can use it; values
	// below 1 mean 1.
	Threads int

	// Template is an optional previously known tree used as warm start or
	// bias. It may belong to another graph; see TemplateEdges.
	Template *Tree

	// Seed drives the randomized heuristics; 0 selects a fixed default.
	Seed int64
}

// DefaultOptions returns options with no floor, no time limit and one thread.
func DefaultOptions() Options {
	return Options{MinScore: math.Inf(-1), Threads: 1}
}

// Validate checks the option values.
func (o Options) Validate() error {
	switch {
	case math.IsNaN(o.MinScore) || math.IsInf(o.MinScore, 1):
		return fmt.Errorf("%w: MinScore=%v", ErrBadOptions, o.MinScore)
	case o.TimeLimit < 0:
		return fmt.Errorf("%w: TimeLimit=%v", ErrBadOptions, o.TimeLimit)
	case o.Threads < 0:
		return fmt.Errorf("%w: Threads=%d", ErrBadOptions, o.Threads)
	}
	return nil
}

// HasFloor reports whether a finite score floor is set.
func (o Options) HasFloor() bool { return !math.IsInf(o.MinScore, -1) }

// CPUs returns the effective thread count (at least 1).
func (o Options) CPUs() int {
	if o.Threads < 1 {
		return 1
	}
	return o.Threads
}

// Deadline is the wall-clock budget of one solve: the earlier of the
// context deadline and start+TimeLimit. Cancellation of ctx also counts as
// exceeding the budget.
type Deadline struct {
	ctx context.Context
	at  time.Time
	set bool
}

// Deadline derives the budget for a solve started at start.
func (o Options) Deadline(ctx context.Context, start time.Time) Deadline {
	if ctx == nil {
		ctx = context.Background()
	}
	d := Deadline{ctx: ctx}
	if o.TimeLimit > 0 {
		d.at, d.set = start.Add(o.TimeLimit), true
	}
	if at, ok := ctx.Deadline(); ok && (!d.set || at.Before(d.at)) {
		d.at, d.set = at, true
	}
	return d
}

// Limited reports whether a time limit applies.
func (d Deadline) Limited() bool { return d.set }

// Exceeded reports whether the budget is used up or the context is done.
func (d Deadline) Exceeded() bool {
	if d.ctx != nil && d.ctx.Err() != nil {
		return true
	}
	return d.set && !time.Now().Before(d.at)
}

// Remaining returns the time left, and false when unlimited.
func (d Deadline) Remaining() (time.Duration, bool) {
	if !d.set {
		return 0, false
	}
	if r := time.Until(d.at); r > 0 {
		return r, true
	}
	return 0, true
}

// Context returns the solve context.
func (d Deadline) Context() context.Context {
	if d.ctx == nil {
		return context.Background()
	}
	return d.ctx
}
