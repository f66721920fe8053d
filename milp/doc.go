// Package milp solves the colorful subtree problem as a 0/1 linear program
// and hands the model to interchangeable engines.
//
// Model (one binary x(e) per loss e = u→v):
//
//	maximize   w(root) + Σ (w(e) + w(v)) · x(e)
//	subject to x(u→v) ≤ Σ x(·→u)          for u ≠ root   (tree)
//	           Σ x(·→v), c(v) = c ≤ 1      for every color (≤ 0 for the root color)
//	           w(root) + Σ (w(e) + w(v)) · x(e) ≥ MinScore  (only with a floor)
//
// Losses point from lower to higher vertex index, so the tree rows are
// enough to rule out cycles and disconnected selections.
//
// Engines:
//
//   - BranchAndBound ("bnb"): bundled, best-first branch and bound with the LP
//     relaxation solved by gonum's simplex. Always available.
//   - HiGHS ("highs"): in-process HiGHS through cgo, compiled only with the
//     build tag highs; otherwise it reports ErrEngineUnavailable.
//   - Gurobi ("gurobi") and CBC ("cbc"): external binaries run on an LP file.
//     Each sits behind a circuit breaker: after repeated failed runs the
//     engine reports ErrEngineUnavailable until the breaker closes again.
//
// Solver adapts an engine to the backend contract: it formulates the model,
// passes the deadline and thread hint, turns the answer into a core.Tree,
// and verifies it (model rows, tree invariants, reported objective) before
// reporting. A template tree becomes the warm start when it is feasible.
// With a floor, an infeasible model means no tree reaches the floor.
//
// ComputeMultipleTrees returns the optimum plus the optima of the models
// that forbid one of its edges each; only the first result is marked optimal.
package milp
