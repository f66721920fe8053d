// Package core defines the shared vocabulary of the fragmentation-tree engine:
// the weighted, colored candidate graph, the colorful subtree a solver selects
// from it, the solve options every backend accepts and the result envelope
// every backend returns.
//
// Graph model:
//
//   - Fragment (vertex): a candidate molecular formula explaining one peak. All
//     candidates for the same peak share a Color. Each vertex carries a single
//     scalar weight produced by the scoring reduction.
//   - Loss (edge): directed parent → child (Head → Tail) neutral loss with a
//     scalar weight.
//   - Graph: an immutable arena. Vertices and edges are addressed by dense int
//     indices; weights, colors and adjacency live in parallel slices. Graphs are
//     created only through Builder, which guarantees:
//   - the designated root has no incoming edge;
//   - there are no self loops, no parallel edges, and no cycles;
//   - every non-root vertex is reachable from the root (unreachable
//     candidates are pruned and indices remapped; Origin keeps the
//     builder index).
//
// Tree model:
//
//	A Tree is a set of selected loss indices over one Graph. NewTree validates
//	that the selection is rooted, that every included vertex has exactly one
//	incoming edge, that no two included vertices share a color, and that every
//	edge is connected to the root. The tree score is
//
//	    w(root) + Σ_{e ∈ tree} (w(e) + w(tail(e)))
//
//	Trees are read-only after construction except for the attachment of a
//	ScoreBreakdown (SetBreakdown), which never influences the score.
//
// Options and results:
//
//	Options{MinScore, TimeLimit, Threads, Template, Seed} is the solve request
//	shared by every backend; DefaultOptions returns "no floor, no limit, one
//	thread". Result wraps the tree with an Optimal flag and one Outcome of the
//	closed set ComputedCorrectly, Infeasible, TimedOut, NoSolutionAboveFloor.
//
// Debug dump:
//
//	WriteGraphDump, WriteTreeDump and ReadDump implement the plain-text exchange
//	format used by external inspection tooling:
//
//	    <vertex count>
//	    <edge count>
//	    <color count>
//	    <score>
//	    <index> <color>            (one line per vertex)
//	    <head> <tail> <weight>     (one line per edge)
//
// Complexity:
//
//   - Build:   O(V + E) plus O(E) map lookups for duplicate detection.
//   - NewTree: O(V + k) for k selected edges.
//   - Dumps:   O(V + E).
package core
