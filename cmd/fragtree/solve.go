package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/core"
)

type solveFlags struct {
	backend   string
	k         int
	timeLimit time.Duration
	minScore  float64
	out       string
}

func newSolveCmd(a *app) *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve <graph-dump>",
		Short: "Compute the best tree of one graph dump and print it as a tree dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, a, &f, args[0])
		},
	}
	cmd.Flags().StringVarP(&f.backend, "backend", "b", "", "backend name (default: fallback chain of the configured priority)")
	cmd.Flags().IntVarP(&f.k, "trees", "k", 1, "number of trees")
	cmd.Flags().DurationVar(&f.timeLimit, "time-limit", 0, "override solve.time_limit")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "override solve.min_score")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write the tree dump here instead of stdout")
	return cmd
}

func runSolve(cmd *cobra.Command, a *app, f *solveFlags, path string) error {
	ctx := cmd.Context()
	g, err := readGraph(path)
	if err != nil {
		return err
	}
	opts := a.cfg.Options()
	if cmd.Flags().Changed("time-limit") {
		opts.TimeLimit = f.timeLimit
	}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = f.minScore
	}

	b, err := a.backend(ctx, f.backend)
	if err != nil {
		return err
	}
	a.log.Info("solving",
		zap.String("graph", path),
		zap.Int("vertices", g.NumVertices()),
		zap.Int("edges", g.NumEdges()),
		zap.Int("colors", g.NumColors()))

	var results []core.Result
	if f.k > 1 {
		results, err = b.ComputeMultipleTrees(ctx, g, f.k, opts)
	} else {
		var res core.Result
		res, err = b.ComputeTree(ctx, g, opts)
		results = []core.Result{res}
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return writeResults(w, cmd.ErrOrStderr(), results)
}

// writeResults prints each tree dump to w and a one-line summary per result
// to summary.
func writeResults(w, summary io.Writer, results []core.Result) error {
	for i, res := range results {
		fmt.Fprintf(summary, "tree %d: backend=%s outcome=%s optimal=%t score=%g elapsed=%s\n",
			i, res.Backend, res.Outcome, res.Optimal, res.Score(), res.Elapsed.Round(time.Microsecond))
		if res.Tree == nil {
			continue
		}
		if err := core.WriteTreeDump(w, res.Tree); err != nil {
			return err
		}
	}
	return nil
}
