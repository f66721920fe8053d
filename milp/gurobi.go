package milp

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Gurobi drives the gurobi_cl command-line tool. One license token backs all
// runs, so instances are not thread-safe; pool them in the solver package.
type Gurobi struct {
	*cliEngine
}

// NewGurobi returns the Gurobi engine.
func NewGurobi(opts ...CLIOption) *Gurobi {
	return &Gurobi{newCLIEngine(NameGurobi, "gurobi_cl", false, gurobiDialect{}, opts)}
}

type gurobiDialect struct{}

func (gurobiDialect) versionArgs() []string { return []string{"--version"} }

func (gurobiDialect) args(lp, sol, start string, limit time.Duration, threads int) []string {
	args := []string{"MIPGap=0", "ResultFile=" + sol}
	if s := limitSeconds(limit); s > 0 {
		args = append(args, "TimeLimit="+formatNum(s))
	}
	if threads > 0 {
		args = append(args, "Threads="+strconv.Itoa(threads))
	}
	if start != "" {
		args = append(args, "InputFile="+start)
	}
	return append(args, lp)
}

// startFile writes a MIP start (.mst): one "name value" line per column.
func (gurobiDialect) startFile(dir string, m *Model) (string, error) {
	var b strings.Builder
	b.WriteString("# MIP start\n")
	for e, v := range m.Start {
		fmt.Fprintf(&b, "%s %s\n", colName(e), formatNum(v))
	}
	path := filepath.Join(dir, "start.mst")
	return path, os.WriteFile(path, []byte(b.String()), 0o600)
}

// parse reads a Gurobi .sol file:
//
//	# Objective value = 12
//	x0 1
//	x1 0
//
// The status comes from the log, since the file does not carry it.
func (gurobiDialect) parse(sol, out []byte, m *Model) (Solution, error) {
	logText := string(out)
	if len(bytes.TrimSpace(sol)) == 0 {
		switch {
		case strings.Contains(logText, "Model is infeasible") || strings.Contains(logText, "Infeasible model"):
			return Solution{Status: StatusInfeasible}, nil
		case strings.Contains(logText, "Time limit reached"):
			return Solution{Status: StatusTimeLimit}, nil
		}
		return Solution{}, fmt.Errorf("%w: gurobi wrote no solution: %s", ErrEngineFailed, firstLine(out))
	}

	x, obj, err := parseNameValue(sol, m.NumCols(), "# Objective value =")
	if err != nil {
		return Solution{}, err
	}
	res := Solution{Status: StatusTimeLimit, X: x, Objective: obj}
	if strings.Contains(logText, "Optimal solution found") {
		res.Status = StatusOptimal
	}
	return res, nil
}

// parseNameValue reads "name value" lines into a column vector. A comment
// line starting with objPrefix carries the objective; if absent, the
// objective is recomputed by the caller from the vector.
func parseNameValue(sol []byte, cols int, objPrefix string) ([]float64, float64, error) {
	x := make([]float64, cols)
	obj := 0.0
	sc := bufio.NewScanner(bytes.NewReader(sol))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if rest, ok := strings.CutPrefix(line, objPrefix); ok {
				v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
				if err != nil {
					return nil, 0, fmt.Errorf("%w: objective %q", ErrEngineFailed, rest)
				}
				obj = v
			}
			continue
		}
		f := strings.Fields(line)
		if len(f) < 2 {
			return nil, 0, fmt.Errorf("%w: bad solution line %q", ErrEngineFailed, line)
		}
		e, err := colIndex(f[0], cols)
		if err != nil {
			return nil, 0, err
		}
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: value %q", ErrEngineFailed, f[1])
		}
		x[e] = v
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	return x, obj, nil
}

// colIndex maps "x<e>" back to e.
func colIndex(name string, cols int) (int, error) {
	rest, ok := strings.CutPrefix(name, "x")
	if !ok {
		return 0, fmt.Errorf("%w: unknown column %q", ErrEngineFailed, name)
	}
	e, err := strconv.Atoi(rest)
	if err != nil || e < 0 || e >= cols {
		return 0, fmt.Errorf("%w: unknown column %q", ErrEngineFailed, name)
	}
	return e, nil
}
