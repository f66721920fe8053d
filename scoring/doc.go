// Package scoring reduces an open set of pluggable scorers to the single
// scalar weight per vertex and per edge that every solver consumes.
//
// Scorers are capability objects. A scorer declares what it scores by the
// interfaces it implements:
//
//   - FragmentScorer: does formula f plausibly explain peak i?
//   - LossScorer:     is the neutral loss parent − child plausible?
//   - PeakScorer:     how much does peak i matter (intensity vs. noise)?
//   - PeakPairScorer: are parent peak i and child peak j consistent?
//
// A Set registers scorers once, resolving their capabilities into per-kind
// lists, so the reduction never type-switches in its inner loops.
//
// Reduction:
//
//	w(v) = Σ FragmentScorer(peak(v), formula(v)) + Σ PeakScorer(peak(v))
//	w(e) = Σ LossScorer(parent, child, parent−child) + Σ PeakPairScorer(peak(parent), peak(child))
//
// Reduce is deterministic. Registering a scorer that reports itself
// Randomized fails unless the Set was built WithRandomized, and Weights
// reduced with such a set say so. Non-finite scores are errors.
//
// BuildGraph enumerates losses between candidate formulas (the child is a
// proper subformula of the parent and explains a strictly lighter peak),
// reduces weights and returns the pruned core.Graph. Colors are peak indices.
//
// Breakdown recomputes, on a finished tree, the contribution of each scorer
// to each vertex and edge. It never feeds back into optimization: scorers
// that fail, panic or return non-finite values contribute a neutral 0.
package scoring
