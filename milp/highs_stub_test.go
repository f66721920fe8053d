//go:build !highs

package milp_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/katalvlaran/fragtree/milp"
	"github.com/stretchr/testify/assert"
)

func TestHiGHS_Unavailable(t *testing.T) {
	h := milp.NewHiGHS()
	assert.Equal(t, "highs", h.Name())
	assert.ErrorIs(t, h.Probe(context.Background()), milp.ErrEngineUnavailable)

	_, err := milp.NewSolver(h).ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, milp.ErrEngineUnavailable)
}
