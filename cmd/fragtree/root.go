package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/config"
	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/metrics"
	"github.com/katalvlaran/fragtree/solver"
)

// app is the state shared by the subcommands once the root pre-run has
// loaded the configuration.
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fragtree",
		Short:         "Maximum colorful subtree solver for fragmentation graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newSolveCmd(a), newBatchCmd(a), newBackendsCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	log, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	a.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	return nil
}

func (a *app) registry() *solver.Registry {
	return a.cfg.Registry(a.log, a.metrics)
}

// backend returns the named backend, or the fallback chain when name is
// empty.
func (a *app) backend(ctx context.Context, name string) (solver.Backend, error) {
	r := a.registry()
	if name != "" {
		return r.Get(ctx, name)
	}
	return r.Chain(ctx)
}

func readGraph(path string) (*core.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, _, err := core.ReadDump(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
