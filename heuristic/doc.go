// Package heuristic builds feasible colorful subtrees quickly and without
// external dependencies, so that a usable tree always exists.
//
// Variants (all share the same working tree, deadline handling and result
// classification; none ever sets the optimal flag):
//
//   - CriticalPath: repeatedly attaches the highest-scoring downward path
//     that is still consistent with the used colors, truncated at the first
//     repeated color and cut to its best prefix.
//   - Prim (PrimEdge, PrimStar): grows the tree from a priority frontier.
//     The edge variant ranks single edges by gain plus one-step lookahead;
//     the star variant ranks a vertex together with all its positive
//     children and attaches the whole star. Keys are recomputed lazily when
//     popped. Ties are broken by a seeded random secondary priority, and
//     restarts after the first add seeded noise to the keys. Each restart
//     uses its own derived random stream.
//   - Insertion: starts from the root (or the template) and repeatedly
//     inserts the free vertex whose attachment gain, plus the gain of
//     re-hanging existing tree vertices below it, is largest.
//
// Every variant finishes by cutting subtrees whose total contribution is
// negative. ComputeMultipleTrees returns the best tree plus distinct
// alternatives found by excluding, one at a time, each edge of the best tree.
//
// Randomness comes only from Options.Seed (0 selects a fixed default), so
// two runs with the same seed return the same tree. Heuristic values are
// safe for concurrent use and accumulate their total running time in Elapsed.
//
// Complexity (V vertices, E edges, C colors):
//
//   - CriticalPath: O(C · (V + E)) rounds of linear passes.
//   - Prim:         O(R · E log E) for R restarts.
//   - Insertion:    O(C · (V + E)).
package heuristic
