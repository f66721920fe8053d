//go:build !highs

package milp

import (
	"context"
	"fmt"
)

// HiGHS is unavailable in builds without the highs tag.
type HiGHS struct{}

// NewHiGHS returns a HiGHS engine that always reports ErrEngineUnavailable.
func NewHiGHS() *HiGHS { return &HiGHS{} }

// Name returns "highs".
func (*HiGHS) Name() string { return NameHiGHS }

// Probe reports ErrEngineUnavailable.
func (*HiGHS) Probe(context.Context) error {
	return fmt.Errorf("%w: highs: built without the highs tag", ErrEngineUnavailable)
}

// ThreadSafe reports false.
func (*HiGHS) ThreadSafe() bool { return false }

// Solve reports ErrEngineUnavailable.
func (h *HiGHS) Solve(ctx context.Context, _ *Model, _ Params) (Solution, error) {
	return Solution{}, h.Probe(ctx)
}
