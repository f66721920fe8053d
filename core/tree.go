package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	notInTree = -1
	rootMark  = -2
)

// Tree is a colorful subtree of a Graph, identified by its selected losses.
// It is read-only after construction except for SetBreakdown.
type Tree struct {
	g      *Graph
	edges  []int // ascending by tail, hence in topological order
	parent []int // vertex → incoming loss, notInTree, or rootMark
	score  float64

	breakdown atomic.Pointer[ScoreBreakdown]
}

// NewTree validates an edge selection and returns the tree it induces.
// The selection may be empty (the root-only tree). The edges slice is copied.
//
// Errors (all wrapping ErrInvalidTree): edge index out of range, a vertex
// with two incoming edges, an edge whose head is not in the tree, two
// vertices of the same color.
//
// Complexity: O(V + k log k).
func NewTree(g *Graph, edges []int) (*Tree, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidTree)
	}
	t := &Tree{
		g:      g,
		edges:  append([]int(nil), edges...),
		parent: make([]int, g.NumVertices()),
	}
	for i := range t.parent {
		t.parent[i] = notInTree
	}
	t.parent[g.root] = rootMark

	// 1. One incoming edge per included vertex.
	for _, e := range t.edges {
		if e < 0 || e >= len(g.losses) {
			return nil, fmt.Errorf("%w: edge %d out of range [0,%d)", ErrInvalidTree, e, len(g.losses))
		}
		tail := g.losses[e].Tail
		if t.parent[tail] != notInTree {
			return nil, fmt.Errorf("%w: vertex %d has more than one incoming edge", ErrInvalidTree, tail)
		}
		t.parent[tail] = e
	}
	sort.Slice(t.edges, func(i, j int) bool { return g.losses[t.edges[i]].Tail < g.losses[t.edges[j]].Tail })

	// 2. Connectivity: heads precede tails, so an included head is itself
	// connected by induction on the topological order.
	for _, e := range t.edges {
		if h := g.losses[e].Head; t.parent[h] == notInTree {
			return nil, fmt.Errorf("%w: edge %d hangs from vertex %d outside the tree", ErrInvalidTree, e, h)
		}
	}

	// 3. Colorfulness and score.
	used := make([]bool, len(g.colors))
	used[g.colorRank[g.root]] = true
	t.score = g.fragments[g.root].Weight
	for _, e := range t.edges {
		tail := g.losses[e].Tail
		c := g.colorRank[tail]
		if used[c] {
			return nil, fmt.Errorf("%w: color %d used twice (vertex %d)", ErrInvalidTree, g.colors[c], tail)
		}
		used[c] = true
		t.score += g.Gain(e)
	}

	return t, nil
}

// RootOnly returns the tree consisting of the root alone.
func RootOnly(g *Graph) *Tree {
	t, _ := NewTree(g, nil)
	return t
}

// Graph returns the graph the tree was selected from.
func (t *Tree) Graph() *Graph { return t.g }

// Root returns the root vertex.
func (t *Tree) Root() int { return t.g.root }

// Score returns w(root) + Σ (w(e) + w(tail(e))).
func (t *Tree) Score() float64 { return t.score }

// Size returns the number of included vertices.
func (t *Tree) Size() int { return len(t.edges) + 1 }

// NumEdges returns the number of selected losses.
func (t *Tree) NumEdges() int { return len(t.edges) }

// Edges returns the selected losses in topological order of their tails.
func (t *Tree) Edges() []int { return append([]int(nil), t.edges...) }

// Vertices returns the included vertices in topological order, root first.
func (t *Tree) Vertices() []int {
	vs := make([]int, 0, len(t.edges)+1)
	vs = append(vs, t.g.root)
	for _, e := range t.edges {
		vs = append(vs, t.g.losses[e].Tail)
	}
	return vs
}

// Contains reports whether vertex v is part of the tree.
func (t *Tree) Contains(v int) bool {
	return v >= 0 && v < len(t.parent) && t.parent[v] != notInTree
}

// IncomingLoss returns the selected loss entering v; false for the root and
// for vertices outside the tree.
func (t *Tree) IncomingLoss(v int) (int, bool) {
	if v < 0 || v >= len(t.parent) || t.parent[v] < 0 {
		return -1, false
	}
	return t.parent[v], true
}

// Parent returns the parent vertex of v.
func (t *Tree) Parent(v int) (int, bool) {
	e, ok := t.IncomingLoss(v)
	if !ok {
		return -1, false
	}
	return t.g.losses[e].Head, true
}

// Children returns the included children of v in ascending order.
func (t *Tree) Children(v int) []int {
	var out []int
	for _, e := range t.edges {
		if l := t.g.losses[e]; l.Head == v {
			out = append(out, l.Tail)
		}
	}
	return out
}

// Signature returns a canonical string of the edge set; two trees over the
// same graph are equal iff their signatures are equal.
func (t *Tree) Signature() string {
	es := append([]int(nil), t.edges...)
	sort.Ints(es)
	var b strings.Builder
	for i, e := range es {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

// Validate re-checks every tree invariant against the graph.
func (t *Tree) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tree", ErrInvalidTree)
	}
	_, err := NewTree(t.g, t.edges)
	return err
}

// SetBreakdown attaches a score breakdown. It never changes Score.
func (t *Tree) SetBreakdown(b *ScoreBreakdown) { t.breakdown.Store(b) }

// Breakdown returns the attached breakdown, or nil.
func (t *Tree) Breakdown() *ScoreBreakdown { return t.breakdown.Load() }

// String renders the tree as "root→a→…" adjacency for logs and test failures.
func (t *Tree) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tree(score=%g, root=%d", t.score, t.g.root)
	for _, e := range t.edges {
		l := t.g.losses[e]
		fmt.Fprintf(&b, ", %d→%d", l.Head, l.Tail)
	}
	b.WriteByte(')')
	return b.String()
}
