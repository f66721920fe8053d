package milp

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CBC drives the COIN-OR cbc command-line tool. Every run is a separate
// process, so instances are thread-safe. CBC runs cold; warm starts are
// ignored.
type CBC struct {
	*cliEngine
}

// NewCBC returns the CBC engine.
func NewCBC(opts ...CLIOption) *CBC {
	return &CBC{newCLIEngine(NameCBC, "cbc", true, cbcDialect{}, opts)}
}

type cbcDialect struct{}

func (cbcDialect) versionArgs() []string { return []string{"-quit"} }

func (cbcDialect) args(lp, sol, _ string, limit time.Duration, threads int) []string {
	args := []string{lp}
	if s := limitSeconds(limit); s > 0 {
		args = append(args, "-sec", formatNum(s))
	}
	if threads > 1 {
		args = append(args, "-threads", strconv.Itoa(threads))
	}
	return append(args, "-solve", "-solu", sol)
}

func (cbcDialect) startFile(string, *Model) (string, error) { return "", nil }

// parse reads a CBC solution file:
//
//	Optimal - objective value 12.00000000
//	      0 x0      1      -3
//	      2 x2      1      -9
//
// Only nonzero columns are listed. CBC reports the objective of its internal
// minimization, so the objective is recomputed from the vector.
func (cbcDialect) parse(sol, out []byte, m *Model) (Solution, error) {
	sc := bufio.NewScanner(bytes.NewReader(sol))
	if !sc.Scan() {
		return Solution{}, fmt.Errorf("%w: cbc wrote no solution: %s", ErrEngineFailed, firstLine(out))
	}
	head := strings.TrimSpace(sc.Text())
	status, _, _ := strings.Cut(head, " - ")
	lower := strings.ToLower(status)

	var res Solution
	switch {
	case strings.HasPrefix(lower, "optimal"):
		res.Status = StatusOptimal
	case strings.Contains(lower, "infeasible"):
		return Solution{Status: StatusInfeasible}, nil
	case strings.HasPrefix(lower, "stopped"):
		res.Status = StatusTimeLimit
		if strings.Contains(strings.ToLower(head), "no integer solution") {
			return res, nil
		}
	default:
		return Solution{}, fmt.Errorf("%w: cbc status %q", ErrEngineFailed, head)
	}

	x := make([]float64, m.NumCols())
	for sc.Scan() {
		f := strings.Fields(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "**"))
		if len(f) == 0 {
			continue
		}
		if len(f) < 3 {
			return Solution{}, fmt.Errorf("%w: bad cbc line %q", ErrEngineFailed, sc.Text())
		}
		e, err := colIndex(f[1], m.NumCols())
		if err != nil {
			return Solution{}, err
		}
		v, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return Solution{}, fmt.Errorf("%w: value %q", ErrEngineFailed, f[2])
		}
		x[e] = v
	}
	if err := sc.Err(); err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	res.X = x
	res.Objective = m.Objective(x) - m.Constant
	return res, nil
}
