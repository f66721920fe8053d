// Package fragtree computes fragmentation trees: maximum-weight colorful
// subtrees of a fragmentation graph built from a tandem mass spectrum.
//
// The work is split over flat packages:
//
//	formula/    molecular formulas: parsing, masses, subformula tests
//	spectrum/   processed peaks and the mass deviation profile
//	core/       graph, tree, options, results and the debug dump format
//	scoring/    scorer sets reduced to one weight per vertex and edge
//	dp/         exact color-subset dynamic program
//	milp/       0/1 model and its engines (bundled branch-and-bound, HiGHS, Gurobi, CBC)
//	heuristic/  critical path, Prim edge/star growth, insertion
//	solver/     backend registry, fallback chain, pools and batches
//	metrics/    Prometheus collector
//	config/     YAML and environment configuration
//
// The fragtree command under cmd/ solves graph dumps from the shell.
//
// Every backend answers the same two calls:
//
//	res, err := backend.ComputeTree(ctx, g, core.DefaultOptions())
//	all, err := backend.ComputeMultipleTrees(ctx, g, 5, opts)
//
// A result carries the tree, whether it is proven optimal, and one of four
// outcomes: computed correctly, infeasible, timed out (with the best tree
// found so far) or no solution above the score floor.
package fragtree
