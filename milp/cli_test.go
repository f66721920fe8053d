package milp_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/katalvlaran/fragtree/core"
	"github.com/katalvlaran/fragtree/internal/graphtest"
	"github.com/katalvlaran/fragtree/milp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary records every run and answers with a canned solution file and
// log.
type fakeBinary struct {
	mu   sync.Mutex
	args [][]string
	sol  string
	log  string
	err  error
	// solFlag finds the solution path in the arguments.
	solFlag func(args []string) string
}

func (f *fakeBinary) run(_ context.Context, dir, _ string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.args = append(f.args, args)
	f.mu.Unlock()
	if dir == "" { // probe
		return []byte("fake 1.0\n"), nil
	}
	if f.sol != "" {
		if err := os.WriteFile(f.solFlag(args), []byte(f.sol), 0o600); err != nil {
			return nil, err
		}
	}
	return []byte(f.log), f.err
}

func found(string) (string, error) { return "/usr/bin/fake", nil }

// cliSolver keeps the model whole so that canned solutions name its columns.
func cliSolver(e milp.Engine) *milp.Solver { return milp.NewSolver(e, milp.WithoutPresolve()) }

func gurobiResultFile(args []string) string {
	for _, a := range args {
		if p, ok := strings.CutPrefix(a, "ResultFile="); ok {
			return p
		}
	}
	return ""
}

func cbcSolu(args []string) string {
	for i, a := range args {
		if a == "-solu" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestGurobi_Optimal(t *testing.T) {
	fb := &fakeBinary{
		sol:     "# Solution for model obj\n# Objective value = 7\nx0 1\nx1 0\n",
		log:     "Optimal solution found (tolerance 0.00e+00)\n",
		solFlag: gurobiResultFile,
	}
	s := cliSolver(milp.NewGurobi(milp.WithRunner(fb.run), milp.WithLookPath(found)))
	require.NoError(t, s.Probe(context.Background()))

	opts := core.DefaultOptions()
	opts.TimeLimit = 30 * time.Second
	opts.Threads = 4
	res, err := s.ComputeTree(context.Background(), graphtest.Scenario(), opts)
	require.NoError(t, err)
	assert.True(t, res.Optimal)
	assert.Equal(t, "gurobi", res.Backend)
	assert.InDelta(t, 7.0, res.Score(), 1e-9)

	require.Len(t, fb.args, 2)
	cmd := strings.Join(fb.args[1], " ")
	assert.Contains(t, cmd, "MIPGap=0")
	assert.Contains(t, cmd, "Threads=4")
	assert.Contains(t, cmd, "TimeLimit=")
	assert.True(t, strings.HasSuffix(cmd, "model.lp"))
}

func TestGurobi_WarmStartFile(t *testing.T) {
	g := graphtest.Scenario()
	tmpl, err := core.NewTree(g, []int{0})
	require.NoError(t, err)

	var start string
	fb := &fakeBinary{
		sol:     "# Objective value = 7\nx0 1\n",
		log:     "Optimal solution found\n",
		solFlag: gurobiResultFile,
	}
	run := func(ctx context.Context, dir, bin string, args ...string) ([]byte, error) {
		for _, a := range args {
			if p, ok := strings.CutPrefix(a, "InputFile="); ok {
				b, err := os.ReadFile(p)
				require.NoError(t, err)
				start = string(b)
			}
		}
		return fb.run(ctx, dir, bin, args...)
	}
	opts := core.DefaultOptions()
	opts.Template = tmpl
	s := cliSolver(milp.NewGurobi(milp.WithRunner(run), milp.WithLookPath(found)))
	_, err = s.ComputeTree(context.Background(), g, opts)
	require.NoError(t, err)
	assert.Equal(t, "# MIP start\nx0 1\nx1 0\n", start)
}

func TestGurobi_Mismatch(t *testing.T) {
	fb := &fakeBinary{
		sol:     "# Objective value = 9\nx0 1\n",
		log:     "Optimal solution found\n",
		solFlag: gurobiResultFile,
	}
	s := cliSolver(milp.NewGurobi(milp.WithRunner(fb.run), milp.WithLookPath(found)))
	res, err := s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, milp.ErrSolutionMismatch)
	assert.Equal(t, core.OutcomeInfeasible, res.Outcome)
	assert.Nil(t, res.Tree)

	fb.sol = "# Objective value = 11\nx0 1\nx1 1\n"
	_, err = s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, milp.ErrSolutionMismatch, "violates the color row")
}

func TestGurobi_InfeasibleAndTimeLimit(t *testing.T) {
	fb := &fakeBinary{log: "Model is infeasible\n", solFlag: gurobiResultFile}
	s := cliSolver(milp.NewGurobi(milp.WithRunner(fb.run), milp.WithLookPath(found)))

	opts := core.DefaultOptions()
	opts.MinScore = 50
	res, err := s.ComputeTree(context.Background(), graphtest.Scenario(), opts)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeNoSolutionAboveFloor, res.Outcome)

	_, err = s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrInfeasible)

	fb.log = "Time limit reached\n"
	res, err = s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 1, res.Tree.Size())

	fb.sol, fb.log = "# Objective value = 4\nx1 1\n", "Time limit reached\n"
	res, err = s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeTimedOut, res.Outcome)
	assert.False(t, res.Optimal)
	assert.InDelta(t, 4.0, res.Score(), 1e-9)
}

func TestCBC_Parse(t *testing.T) {
	cases := []struct {
		name    string
		sol     string
		outcome core.Outcome
		score   float64
		optimal bool
	}{
		{"optimal", "Optimal - objective value -7.00000000\n      0 x0      1      -7\n", core.OutcomeComputedCorrectly, 7, true},
		{"stopped with incumbent", "Stopped on time - objective value -4.00000000\n      1 x1      1      -4\n", core.OutcomeTimedOut, 4, false},
		{"stopped without incumbent", "Stopped on time (no integer solution - continuous used) - objective value -7\n      0 x0      0.5      0\n", core.OutcomeTimedOut, 0, false},
		{"flagged line", "Optimal - objective value -7\n**    0 x0      1      -7\n", core.OutcomeComputedCorrectly, 7, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fb := &fakeBinary{sol: tc.sol, solFlag: cbcSolu}
			s := cliSolver(milp.NewCBC(milp.WithRunner(fb.run), milp.WithLookPath(found)))
			res, err := s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, res.Outcome)
			assert.Equal(t, tc.optimal, res.Optimal)
			assert.InDelta(t, tc.score, res.Score(), 1e-9)
		})
	}
}

func TestCBC_ArgsAndInfeasible(t *testing.T) {
	fb := &fakeBinary{sol: "Infeasible - objective value 0\n", solFlag: cbcSolu}
	s := cliSolver(milp.NewCBC(milp.WithRunner(fb.run), milp.WithLookPath(found)))
	opts := core.DefaultOptions()
	opts.MinScore = 50
	opts.Threads = 2
	opts.TimeLimit = time.Minute
	res, err := s.ComputeTree(context.Background(), graphtest.Scenario(), opts)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeNoSolutionAboveFloor, res.Outcome)

	require.Len(t, fb.args, 1)
	cmd := strings.Join(fb.args[0], " ")
	assert.Contains(t, cmd, "-threads 2")
	assert.Contains(t, cmd, "-sec ")
	assert.Contains(t, cmd, "-solve -solu ")
}

// TestBreaker opens the circuit after repeated failed runs.
func TestBreaker(t *testing.T) {
	fb := &fakeBinary{log: "Segmentation fault\n", err: errors.New("exit status 139"), solFlag: gurobiResultFile}
	g := milp.NewGurobi(milp.WithRunner(fb.run), milp.WithLookPath(found), milp.WithBreaker(2, time.Hour))
	s := cliSolver(g)

	for i := 0; i < 2; i++ {
		_, err := s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
		assert.ErrorIs(t, err, milp.ErrEngineFailed)
	}
	assert.Equal(t, "open", g.BreakerState())

	_, err := s.ComputeTree(context.Background(), graphtest.Scenario(), core.DefaultOptions())
	assert.ErrorIs(t, err, milp.ErrEngineUnavailable)
	assert.Len(t, fb.args, 2, "an open breaker does not run the binary")
}

func TestProbe_Unavailable(t *testing.T) {
	missing := func(string) (string, error) { return "", errors.New("not found") }
	assert.ErrorIs(t, milp.NewCBC(milp.WithLookPath(missing)).Probe(context.Background()), milp.ErrEngineUnavailable)
	assert.ErrorIs(t, milp.NewGurobi(milp.WithLookPath(missing)).Probe(context.Background()), milp.ErrEngineUnavailable)

	failing := func(context.Context, string, string, ...string) ([]byte, error) {
		return []byte("no license\n"), errors.New("exit status 1")
	}
	err := milp.NewGurobi(milp.WithLookPath(found), milp.WithRunner(failing)).Probe(context.Background())
	assert.ErrorIs(t, err, milp.ErrEngineUnavailable)
}
