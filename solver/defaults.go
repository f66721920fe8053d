package solver

import (
	"github.com/katalvlaran/fragtree/dp"
	"github.com/katalvlaran/fragtree/heuristic"
	"github.com/katalvlaran/fragtree/milp"
)

// Defaults carries the per-backend options of DefaultRegistry.
type Defaults struct {
	DP     []dp.Option
	Prim   []heuristic.PrimOption
	Gurobi []milp.CLIOption
	CBC    []milp.CLIOption
}

// DefaultRegistry registers every backend of this module: the DP, the four
// MILP engines and the four heuristics.
func DefaultRegistry(d Defaults, opts ...Option) *Registry {
	r := NewRegistry(opts...)
	factories := []struct {
		name string
		f    Factory
	}{
		{dp.Name, func() (Backend, error) { return dp.New(d.DP...), nil }},
		{milp.NameBranchAndBound, func() (Backend, error) { return milp.NewSolver(milp.NewBranchAndBound()), nil }},
		{milp.NameHiGHS, func() (Backend, error) { return milp.NewSolver(milp.NewHiGHS()), nil }},
		{milp.NameGurobi, func() (Backend, error) { return milp.NewSolver(milp.NewGurobi(d.Gurobi...)), nil }},
		{milp.NameCBC, func() (Backend, error) { return milp.NewSolver(milp.NewCBC(d.CBC...)), nil }},
		{heuristic.NameCriticalPath, func() (Backend, error) { return heuristic.NewCriticalPath(), nil }},
		{heuristic.NameInsertion, func() (Backend, error) { return heuristic.NewInsertion(), nil }},
		{heuristic.NamePrimStar, func() (Backend, error) { return heuristic.NewPrim(heuristic.PrimStar, d.Prim...), nil }},
		{heuristic.NamePrimEdge, func() (Backend, error) { return heuristic.NewPrim(heuristic.PrimEdge, d.Prim...), nil }},
	}
	for _, f := range factories {
		if err := r.Register(f.name, f.f); err != nil {
			panic(err) // names above are distinct
		}
	}
	return r
}
