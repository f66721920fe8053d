package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/solver"
)

type batchFlags struct {
	backend     string
	workers     int
	outDir      string
	metricsAddr string
}

func newBatchCmd(a *app) *cobra.Command {
	var f batchFlags
	cmd := &cobra.Command{
		Use:   "batch <graph-dump>...",
		Short: "Solve many graph dumps in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, a, &f, args)
		},
	}
	cmd.Flags().StringVarP(&f.backend, "backend", "b", "", "backend name (default: fallback chain)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "parallel solves (default: workers from the configuration)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "write one tree dump per input into this directory")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the batch runs")
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, f *batchFlags, paths []string) error {
	ctx := cmd.Context()

	if f.metricsAddr != "" {
		stop, err := a.serveMetrics(f.metricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	jobs := make([]solver.Job, 0, len(paths))
	for _, p := range paths {
		g, err := readGraph(p)
		if err != nil {
			return err
		}
		jobs = append(jobs, solver.Job{ID: filepath.Base(p), Graph: g, Options: a.cfg.Options()})
	}

	b, err := a.backend(ctx, f.backend)
	if err != nil {
		return err
	}
	workers := f.workers
	if workers == 0 {
		workers = a.cfg.Workers
	}
	out, err := solver.RunBatch(ctx, b, jobs, workers, solver.WithBatchLogger(a.log))
	if err != nil {
		return err
	}

	if f.outDir != "" {
		if err := writeTrees(f.outDir, out); err != nil {
			return err
		}
	}
	return printSummary(cmd, out)
}

func writeTrees(dir string, out []solver.JobResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, r := range out {
		best := r.Best()
		if r.Err != nil || best.Tree == nil {
			continue
		}
		name := strings.TrimSuffix(r.ID, filepath.Ext(r.ID)) + ".tree"
		file, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		err = core.WriteTreeDump(file, best.Tree)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func printSummary(cmd *cobra.Command, out []solver.JobResult) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tBACKEND\tOUTCOME\tOPTIMAL\tSCORE\tELAPSED")
	failed := 0
	for _, r := range out {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t-\terror\t-\t-\t%s\n", r.ID, r.Err)
			continue
		}
		best := r.Best()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%g\t%s\n",
			r.ID, best.Backend, best.Outcome, best.Optimal, best.Score(), r.Elapsed.Round(time.Microsecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(out))
	}
	return nil
}

// serveMetrics exposes the collector until the returned stop is called.
func (a *app) serveMetrics(addr string) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
