package config_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/config"
	"github.com/katalvlaran/fragtree/solver"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fragtree.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	opts := cfg.Options()
	assert.True(t, math.IsInf(opts.MinScore, -1))
	assert.Zero(t, opts.TimeLimit)
	assert.Equal(t, 1, opts.Threads)
}

func TestLoad_FileThenEnv(t *testing.T) {
	p := writeFile(t, `
log:
  level: debug
solve:
  time_limit: 30s
  threads: 4
  min_score: 2.5
  seed: 7
backends:
  priority: [dp, bnb, insertion]
  pool_size: 2
  dp_max_colors: 12
heuristic:
  restarts: 3
workers: 6
`)
	t.Setenv("FRAGTREE_THREADS", "8")
	t.Setenv("FRAGTREE_BACKENDS", "bnb, critical-path")
	t.Setenv("FRAGTREE_NOISE", "0.25")

	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Solve.TimeLimit)
	assert.Equal(t, 8, cfg.Solve.Threads, "the environment wins over the file")
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 3, cfg.Heuristic.Restarts)
	assert.InDelta(t, 0.25, cfg.Heuristic.Noise, 1e-12)
	assert.Empty(t, cmp.Diff([]string{"bnb", "critical-path"}, cfg.Backends.Priority))

	opts := cfg.Options()
	assert.Equal(t, 2.5, opts.MinScore)
	assert.Equal(t, int64(7), opts.Seed)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		env  map[string]string
		want error
	}{
		{"unknown key", "solve:\n  timelimit: 3s\n", nil, nil},
		{"bad level", "log:\n  level: loud\n", nil, config.ErrInvalid},
		{"unknown backend", "backends:\n  priority: [cplex]\n", nil, config.ErrInvalid},
		{"empty priority", "backends:\n  priority: []\n", nil, config.ErrInvalid},
		{"too many dp colors", "backends:\n  dp_max_colors: 40\n", nil, config.ErrInvalid},
		{"negative threads", "", map[string]string{"FRAGTREE_THREADS": "-2"}, config.ErrInvalid},
		{"bad duration", "", map[string]string{"FRAGTREE_TIME_LIMIT": "soon"}, config.ErrBadEnv},
		{"bad floor", "", map[string]string{"FRAGTREE_MIN_SCORE": "high"}, config.ErrBadEnv},
		{"bad noise", "", map[string]string{"FRAGTREE_NOISE": "lots"}, config.ErrBadEnv},
		{"noise out of range", "", map[string]string{"FRAGTREE_NOISE": "1.5"}, config.ErrInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeFile(t, tc.body))
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestValidate_Message(t *testing.T) {
	cfg := config.Default()
	cfg.Backends.PoolSize = 0
	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.True(t, strings.Contains(err.Error(), "pool_size") || strings.Contains(err.Error(), "poolsize"), err.Error())

	nan := math.NaN()
	cfg = config.Default()
	cfg.Solve.MinScore = &nan
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
}

func TestLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "warn"
	l, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}

func TestRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Backends.Priority = []string{"dp", "critical-path"}
	r := cfg.Registry(zap.NewNop(), nil)
	b, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dp", b.Name())
	assert.Equal(t, solver.StateConfigured, r.State("critical-path"))
}
