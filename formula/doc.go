// Package formula provides molecular formula candidates for fragment vertices.
//
// A Formula is a fixed-size vector of element counts over a small periodic table
// (the elements that appear in small-molecule MS/MS work). It is a comparable
// value type: two formulas are equal iff their counts are equal, so it can be
// used directly as a map key.
//
// Operations:
//   - Parse / MustParse : read "C6H12O6"-style strings (element symbols followed
//     by optional counts, in any order, repeated symbols are summed).
//   - String : Hill order (C, H, then alphabetical; alphabetical if no carbon).
//   - Mass : monoisotopic mass of the neutral formula.
//   - Sub / Add : element-wise arithmetic; Sub is the neutral loss parent−child.
//   - IsSubformulaOf : child ⊂ parent test used when enumerating losses.
//   - RDBE : ring-double-bond equivalent, a chemical plausibility indicator.
//
// Complexity: every operation is O(E) where E is the (constant) element count.
package formula
