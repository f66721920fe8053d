package solver

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/fragtree/core"
)

// Job is one graph of a batch.
type Job struct {
	// ID identifies the job in logs and results; a random one is assigned
	// when empty.
	ID string

	Graph   *core.Graph
	Options core.Options

	// K > 1 asks for the K best trees instead of one.
	K int
}

// JobResult is the answer to one Job, at the same index as the job.
type JobResult struct {
	ID      string
	Results []core.Result
	Err     error
	Elapsed time.Duration
}

// Best returns the first result, or an empty infeasible Result.
func (r JobResult) Best() core.Result {
	if len(r.Results) == 0 {
		return core.Result{Outcome: core.OutcomeInfeasible}
	}
	return r.Results[0]
}

// BatchOption configures RunBatch.
type BatchOption func(*batchConfig)

type batchConfig struct {
	log *zap.Logger
}

// WithBatchLogger logs job start and completion to l.
func WithBatchLogger(l *zap.Logger) BatchOption {
	return func(c *batchConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// RunBatch solves jobs on at most workers goroutines (GOMAXPROCS when
// workers < 1). A backend that is not thread-safe is serialized. Job errors
// are reported per job and never stop the batch; cancelling ctx does, and
// jobs that had not started report the context error.
//
// The returned error is ctx.Err() when the batch was cut short.
func RunBatch(ctx context.Context, b Backend, jobs []Job, workers int, opts ...BatchOption) ([]JobResult, error) {
	cfg := batchConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	b = Serialized(b)

	out := make([]JobResult, len(jobs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := range jobs {
		job := jobs[i]
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		out[i].ID = job.ID

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i] = runJob(egCtx, b, job, cfg.log)
			return nil
		})
	}
	_ = eg.Wait()

	return out, ctx.Err()
}

func runJob(ctx context.Context, b Backend, job Job, log *zap.Logger) JobResult {
	log = log.With(zap.String("job", job.ID), zap.String("backend", b.Name()))
	log.Debug("job started")

	start := time.Now()
	res := JobResult{ID: job.ID}
	if job.K > 1 {
		res.Results, res.Err = b.ComputeMultipleTrees(ctx, job.Graph, job.K, job.Options)
	} else {
		var r core.Result
		r, res.Err = b.ComputeTree(ctx, job.Graph, job.Options)
		res.Results = []core.Result{r}
	}
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		log.Warn("job failed", zap.Error(res.Err), zap.Duration("elapsed", res.Elapsed))
		return res
	}
	best := res.Best()
	log.Info("job finished",
		zap.Stringer("outcome", best.Outcome),
		zap.Float64("score", best.Score()),
		zap.Int("trees", len(res.Results)),
		zap.Duration("elapsed", res.Elapsed))
	return res
}
