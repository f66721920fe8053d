package core

import (
	"fmt"
	"math"
	"sort"
)

// Graph is an immutable weighted, colored candidate DAG produced by Builder.
//
// Vertex indices form a topological order: the root is vertex 0 and every
// loss satisfies Head < Tail. Slices returned by accessors are shared with
// the graph and must not be modified. A Graph is safe for concurrent reads.
type Graph struct {
	fragments []Fragment
	losses    []Loss
	root      int
	incoming  [][]int
	outgoing  [][]int
	origin    []int

	colors    []Color // distinct colors, ascending
	colorRank []int   // vertex → index into colors
}

// finish derives the color tables.
func (g *Graph) finish() {
	seen := make(map[Color]struct{}, len(g.fragments))
	g.colors = g.colors[:0]
	for _, f := range g.fragments {
		if _, ok := seen[f.Color]; !ok {
			seen[f.Color] = struct{}{}
			g.colors = append(g.colors, f.Color)
		}
	}
	sort.Slice(g.colors, func(i, j int) bool { return g.colors[i] < g.colors[j] })
	rank := make(map[Color]int, len(g.colors))
	for i, c := range g.colors {
		rank[c] = i
	}
	g.colorRank = make([]int, len(g.fragments))
	for v, f := range g.fragments {
		g.colorRank[v] = rank[f.Color]
	}
}

// NumVertices returns the number of (reachable) fragments.
func (g *Graph) NumVertices() int { return len(g.fragments) }

// NumEdges returns the number of losses.
func (g *Graph) NumEdges() int { return len(g.losses) }

// NumColors returns the number of distinct colors, the quantity that bounds
// exact DP feasibility.
func (g *Graph) NumColors() int { return len(g.colors) }

// Root returns the root vertex index (always 0).
func (g *Graph) Root() int { return g.root }

// Fragment returns vertex v. It panics if v is out of range.
func (g *Graph) Fragment(v int) Fragment { return g.fragments[v] }

// Loss returns edge e. It panics if e is out of range.
func (g *Graph) Loss(e int) Loss { return g.losses[e] }

// Incoming returns the indices of losses whose tail is v.
func (g *Graph) Incoming(v int) []int { return g.incoming[v] }

// Outgoing returns the indices of losses whose head is v.
func (g *Graph) Outgoing(v int) []int { return g.outgoing[v] }

// TopoOrder returns the vertices in topological order. Since vertex indices
// already form such an order this is 0..V-1.
func (g *Graph) TopoOrder() []int {
	order := make([]int, len(g.fragments))
	for i := range order {
		order[i] = i
	}
	return order
}

// VertexWeight returns the weight of vertex v.
func (g *Graph) VertexWeight(v int) float64 { return g.fragments[v].Weight }

// EdgeWeight returns the weight of edge e.
func (g *Graph) EdgeWeight(e int) float64 { return g.losses[e].Weight }

// Gain returns the score change of adding edge e together with its tail:
// w(e) + w(tail(e)).
func (g *Graph) Gain(e int) float64 {
	l := g.losses[e]
	return l.Weight + g.fragments[l.Tail].Weight
}

// Color returns the color of vertex v.
func (g *Graph) Color(v int) Color { return g.fragments[v].Color }

// ColorIndex returns the dense index of v's color in Colors().
func (g *Graph) ColorIndex(v int) int { return g.colorRank[v] }

// Colors returns the distinct colors in ascending order.
func (g *Graph) Colors() []Color { return g.colors }

// Origin returns the Builder index vertex v had before pruning and remapping.
func (g *Graph) Origin(v int) int { return g.origin[v] }

// FindLoss returns the index of the loss head→tail, if present.
//
// Complexity: O(out-degree(head)).
func (g *Graph) FindLoss(head, tail int) (int, bool) {
	if head < 0 || head >= len(g.fragments) {
		return -1, false
	}
	for _, e := range g.outgoing[head] {
		if g.losses[e].Tail == tail {
			return e, true
		}
	}
	return -1, false
}

// Reweight returns a graph with the same structure and new weights. The
// adjacency is shared with g. Either slice may be nil to keep the current
// weights.
//
// Errors: ErrBadWeight on length mismatch or non-finite values.
func (g *Graph) Reweight(vertexW, edgeW []float64) (*Graph, error) {
	if vertexW != nil && len(vertexW) != len(g.fragments) {
		return nil, fmt.Errorf("%w: %d vertex weights for %d vertices", ErrBadWeight, len(vertexW), len(g.fragments))
	}
	if edgeW != nil && len(edgeW) != len(g.losses) {
		return nil, fmt.Errorf("%w: %d edge weights for %d edges", ErrBadWeight, len(edgeW), len(g.losses))
	}
	ng := *g
	ng.fragments = append([]Fragment(nil), g.fragments...)
	ng.losses = append([]Loss(nil), g.losses...)
	for v, w := range vertexW {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: vertex %d = %v", ErrBadWeight, v, w)
		}
		ng.fragments[v].Weight = w
	}
	for e, w := range edgeW {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: edge %d = %v", ErrBadWeight, e, w)
		}
		ng.losses[e].Weight = w
	}

	return &ng, nil
}
