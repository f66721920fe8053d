// Package config loads the fragtree configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// FRAGTREE_* environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/heuristic"
	"github.com/katalvlaran/fragtree/metrics"
	"github.com/katalvlaran/fragtree/milp"
	"github.com/katalvlaran/fragtree/solver"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")

	// ErrBadEnv indicates an environment variable that does not parse.
	ErrBadEnv = errors.New("config: bad environment variable")
)

// Config is the complete configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Solve     SolveConfig     `yaml:"solve"`
	Backends  BackendsConfig  `yaml:"backends"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// Workers bounds the parallel solves of a batch; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// SolveConfig holds the per-solve options.
type SolveConfig struct {
	TimeLimit time.Duration `yaml:"time_limit" validate:"gte=0"`
	Threads   int           `yaml:"threads" validate:"gte=0"`

	// MinScore is the score floor; nil means no floor.
	MinScore *float64 `yaml:"min_score"`

	Seed int64 `yaml:"seed"`
}

// BackendsConfig drives backend selection.
type BackendsConfig struct {
	Priority    []string `yaml:"priority" validate:"min=1,dive,oneof=dp bnb highs gurobi cbc critical-path insertion prim-star prim-edge"`
	PoolSize    int      `yaml:"pool_size" validate:"gte=1"`
	DPMaxColors int      `yaml:"dp_max_colors" validate:"gte=1,lte=24"`
	GurobiPath  string   `yaml:"gurobi_binary"`
	CBCPath     string   `yaml:"cbc_binary"`
}

// HeuristicConfig tunes the Prim heuristics.
type HeuristicConfig struct {
	Restarts int     `yaml:"restarts" validate:"gte=1"`
	Noise    float64 `yaml:"noise" validate:"gte=0,lte=1"`
}

// MetricsConfig names the Prometheus namespace.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Solve: SolveConfig{
			Threads: 1,
		},
		Backends: BackendsConfig{
			Priority:    append([]string(nil), solver.DefaultPriority...),
			PoolSize:    1,
			DPMaxColors: dp.DefaultMaxColors,
		},
		Heuristic: HeuristicConfig{
			Restarts: heuristic.DefaultRestarts,
			Noise:    heuristic.DefaultNoise,
		},
		Metrics: MetricsConfig{Namespace: "fragtree"},
	}
}

var validate = validator.New()

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		msgs := make([]string, 0, len(ves))
		for _, fe := range ves {
			msgs = append(msgs, fieldError(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	if m := c.Solve.MinScore; m != nil && (math.IsNaN(*m) || math.IsInf(*m, 0)) {
		return fmt.Errorf("%w: solve.min_score must be finite", ErrInvalid)
	}
	return nil
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Options returns the solve options.
func (c *Config) Options() core.Options {
	o := core.DefaultOptions()
	o.TimeLimit = c.Solve.TimeLimit
	o.Threads = c.Solve.Threads
	o.Seed = c.Solve.Seed
	if c.Solve.MinScore != nil {
		o.MinScore = *c.Solve.MinScore
	}
	return o
}

// Logger builds the zap logger: production JSON output, or the development
// console encoder when Log.Development is set.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Registry returns the default registry configured by c.
func (c *Config) Registry(log *zap.Logger, m *metrics.Collector) *solver.Registry {
	d := solver.Defaults{
		DP: []dp.Option{dp.WithMaxColors(c.Backends.DPMaxColors)},
		Prim: []heuristic.PrimOption{
			heuristic.WithRestarts(c.Heuristic.Restarts),
			heuristic.WithNoise(c.Heuristic.Noise),
		},
	}
	if c.Backends.GurobiPath != "" {
		d.Gurobi = append(d.Gurobi, milp.WithBinary(c.Backends.GurobiPath))
	}
	if c.Backends.CBCPath != "" {
		d.CBC = append(d.CBC, milp.WithBinary(c.Backends.CBCPath))
	}
	return solver.DefaultRegistry(d,
		solver.WithLogger(log),
		solver.WithMetrics(m),
		solver.WithPriority(c.Backends.Priority...),
		solver.WithPoolSize(c.Backends.PoolSize),
	)
}
