package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment variable read by Load.
const EnvPrefix = "FRAGTREE_"

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the environment, validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays the YAML document in r onto cfg. Unknown keys are errors.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overlays the FRAGTREE_* variables.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.boolean("LOG_DEVELOPMENT", &cfg.Log.Development)
	env.duration("TIME_LIMIT", &cfg.Solve.TimeLimit)
	env.integer("THREADS", &cfg.Solve.Threads)
	env.integer64("SEED", &cfg.Solve.Seed)
	if v, ok := env.get("MIN_SCORE"); ok {
		if strings.EqualFold(v, "none") {
			cfg.Solve.MinScore = nil
		} else if f, err := strconv.ParseFloat(v, 64); err != nil {
			env.fail("MIN_SCORE", err)
		} else {
			cfg.Solve.MinScore = &f
		}
	}
	if v, ok := env.get("BACKENDS"); ok {
		cfg.Backends.Priority = splitList(v)
	}
	env.integer("POOL_SIZE", &cfg.Backends.PoolSize)
	env.integer("DP_MAX_COLORS", &cfg.Backends.DPMaxColors)
	env.str("GUROBI_BINARY", &cfg.Backends.GurobiPath)
	env.str("CBC_BINARY", &cfg.Backends.CBCPath)
	env.integer("RESTARTS", &cfg.Heuristic.Restarts)
	env.float("NOISE", &cfg.Heuristic.Noise)
	env.integer("WORKERS", &cfg.Workers)
	env.str("METRICS_NAMESPACE", &cfg.Metrics.Namespace)

	return env.err
}

// envReader keeps the first parse error.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(name string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s%s: %v", ErrBadEnv, EnvPrefix, name, err)
	}
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	if v, ok := e.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) integer(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(name string, dst *float64) {
	if v, ok := e.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) integer64(name string, dst *int64) {
	if v, ok := e.get(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
