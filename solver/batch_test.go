package solver_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/heuristic"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/katalvlaran/fragtree/solver"
)

func TestRunBatch(t *testing.T) {
	jobs := []solver.Job{
		{ID: "scenario", Graph: graphtest.Scenario(), Options: core.DefaultOptions()},
		{Graph: graphtest.Diamond(), Options: core.DefaultOptions()},
		{Graph: graphtest.NegativeVertex(), Options: core.DefaultOptions(), K: 3},
		{ID: "bad", Graph: graphtest.Scenario(), Options: core.Options{Threads: -1}},
	}
	for seed := int64(1); seed <= 6; seed++ {
		jobs = append(jobs, solver.Job{Graph: graphtest.Random(seed, 12, 6, 0.3), Options: core.DefaultOptions()})
	}

	out, err := solver.RunBatch(context.Background(), dp.New(), jobs, 3, solver.WithBatchLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.Len(t, out, len(jobs))

	assert.Equal(t, "scenario", out[0].ID)
	assert.InDelta(t, 7.0, out[0].Best().Score(), 1e-9)
	_, err = uuid.Parse(out[1].ID)
	assert.NoError(t, err, "missing ids are generated")
	assert.InDelta(t, 12.0, out[1].Best().Score(), 1e-9)
	assert.NotEmpty(t, out[2].Results)
	assert.ErrorIs(t, out[3].Err, core.ErrBadOptions, "a failing job does not stop the batch")

	for i, r := range out[4:] {
		require.NoError(t, r.Err, "job %d", i+4)
		assert.True(t, r.Best().Optimal)
		require.NoError(t, graphtest.CheckTree(r.Best().Tree))
	}
}

// TestRunBatch_UnsafeBackend runs a non-thread-safe backend on many
// workers; the batch serializes it.
func TestRunBatch_UnsafeBackend(t *testing.T) {
	s := &stub{name: "u", exclusive: true}
	jobs := make([]solver.Job, 20)
	for i := range jobs {
		jobs[i] = solver.Job{Graph: graphtest.Scenario(), Options: core.DefaultOptions()}
	}
	out, err := solver.RunBatch(context.Background(), s, jobs, 8)
	require.NoError(t, err)
	assert.Len(t, out, 20)
	assert.EqualValues(t, 20, s.calls.Load())
	assert.Zero(t, s.overlaps.Load())
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []solver.Job{
		{ID: "a", Graph: graphtest.Diamond(), Options: core.DefaultOptions()},
		{ID: "b", Graph: graphtest.Diamond(), Options: core.DefaultOptions()},
	}
	out, err := solver.RunBatch(ctx, heuristic.NewCriticalPath(), jobs, 1)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.NotEmpty(t, r.ID)
	}
}
