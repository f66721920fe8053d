package solver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/metrics"
	"github.com/katalvlaran/fragtree/milp"
)

// Chain tries backends in order. It moves to the next one only when a
// backend cannot handle the graph at all: too many colors for the DP, an
// engine that went away after its probe, or an engine run that crashed.
// Every other error, and every result including timeouts, is final.
type Chain struct {
	backends []Backend
	log      *zap.Logger
	metrics  *metrics.Collector
}

// NewChain builds a chain over bs, which must be safe for concurrent use
// if the chain is.
func NewChain(bs ...Backend) *Chain {
	return &Chain{backends: bs, log: zap.NewNop()}
}

// Name is "chain".
func (c *Chain) Name() string { return "chain" }

// ThreadSafe reports whether every member is.
func (c *Chain) ThreadSafe() bool {
	for _, b := range c.backends {
		if !b.ThreadSafe() {
			return false
		}
	}
	return true
}

// Backends returns the members in order.
func (c *Chain) Backends() []Backend { return append([]Backend(nil), c.backends...) }

// ComputeTree runs the first backend that accepts g.
func (c *Chain) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	var (
		res core.Result
		err error
	)
	for i, b := range c.backends {
		res, err = b.ComputeTree(ctx, g, opts)
		if !c.next(i, err) {
			return res, err
		}
	}
	return res, errors.Join(ErrNoBackend, err)
}

// ComputeMultipleTrees runs the first backend that accepts g.
func (c *Chain) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	var (
		rs  []core.Result
		err error
	)
	for i, b := range c.backends {
		rs, err = b.ComputeMultipleTrees(ctx, g, k, opts)
		if !c.next(i, err) {
			return rs, err
		}
	}
	return rs, errors.Join(ErrNoBackend, err)
}

// next reports whether the error of backend i hands the graph over.
func (c *Chain) next(i int, err error) bool {
	if !fallsBack(err) || i+1 == len(c.backends) {
		return false
	}
	from, to := c.backends[i].Name(), c.backends[i+1].Name()
	c.log.Warn("falling back", zap.String("from", from), zap.String("to", to), zap.Error(err))
	c.metrics.ObserveFallback(from, to)
	return true
}

func fallsBack(err error) bool {
	return errors.Is(err, dp.ErrTooManyColors) ||
		errors.Is(err, milp.ErrEngineUnavailable) ||
		errors.Is(err, milp.ErrEngineFailed)
}
