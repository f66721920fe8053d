package solver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/metrics"
)

const outcomeError = "error"

// instrumented logs and counts every computation of the wrapped backend.
type instrumented struct {
	Backend
	log     *zap.Logger
	metrics *metrics.Collector
}

func instrument(b Backend, log *zap.Logger, m *metrics.Collector) Backend {
	return &instrumented{Backend: b, log: log.With(zap.String("backend", b.Name())), metrics: m}
}

func (in *instrumented) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	start := time.Now()
	res, err := in.Backend.ComputeTree(ctx, g, opts)
	in.observe(res, err, time.Since(start))
	return res, err
}

func (in *instrumented) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	start := time.Now()
	rs, err := in.Backend.ComputeMultipleTrees(ctx, g, k, opts)
	var first core.Result
	if len(rs) > 0 {
		first = rs[0]
	}
	in.observe(first, err, time.Since(start))
	return rs, err
}

func (in *instrumented) observe(res core.Result, err error, d time.Duration) {
	outcome := res.Outcome.String()
	if err != nil {
		outcome = outcomeError
	}
	in.metrics.ObserveSolve(in.Name(), outcome, d)

	switch {
	case fallsBack(err):
		in.log.Warn("backend declined the graph", zap.Error(err))
	case err != nil:
		in.log.Error("solve failed", zap.Error(err), zap.Duration("elapsed", d))
	case res.Outcome == core.OutcomeTimedOut:
		in.log.Warn("solve timed out", zap.Float64("score", res.Score()), zap.Duration("elapsed", d))
	default:
		in.log.Debug("solve finished",
			zap.Stringer("outcome", res.Outcome),
			zap.Bool("optimal", res.Optimal),
			zap.Float64("score", res.Score()),
			zap.Duration("elapsed", d))
	}
}
