// Package dp computes provably optimal colorful subtrees of a candidate graph
// with a subset dynamic program over colors.
//
// Let R(v) be the set of colors that occur strictly below v (excluding the
// color of v and the root color). For every vertex v and every S ⊆ R(v) the
// program keeps
//
//	F_v[S] = best score of a subtree rooted at v whose descendants use
//	         exactly the colors S (F_v[∅] = w(v))
//	C_v[T] = max over edges e = v→u with c(u) ∈ T of w(e) + F_u[T \ {c(u)}]
//	F_v[S] = max over T ⊆ S with lowbit(S) ∈ T of C_v[T] + F_v[S \ T]
//
// and the optimum is max_S F_root[S]. Fixing lowbit(S) inside T makes every
// tree correspond to exactly one decomposition, so keeping the k best entries
// per cell yields the k best distinct trees (ComputeMultipleTrees).
//
// Vertex indices of a core.Graph are a topological order, so tables are
// filled from the last vertex to the root. Tables are compressed to the 2^|R(v)|
// subsets of R(v).
//
// Color cap: graphs with more non-root colors than MaxColors (default 16) are
// refused with a *ColorLimitError matching ErrTooManyColors. With
// WithOverflow(AttachGreedily) the program runs on the MaxColors most
// promising colors and the remaining vertices are attached greedily; such
// results are never marked optimal.
//
// Complexity:
//
//   - Time:   O(Σ_v 3^|R(v)| · k² + Σ_e 2^|R(tail)| · k · C)
//   - Memory: O(Σ_v 2^|R(v)| · k)
//
// The solver is stateless and safe for concurrent use.
package dp
