package core

import (
	"container/heap"
	"fmt"
	"math"
)

// Builder accumulates fragments and losses and produces an immutable Graph.
// A Builder is not safe for concurrent use.
type Builder struct {
	fragments []Fragment
	losses    []Loss
	pairs     map[[2]int]struct{}
	root      int
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{root: -1}
	for _, opt := range opts {
		opt(b)
	}
	if b.pairs == nil {
		b.pairs = make(map[[2]int]struct{})
	}

	return b
}

// AddFragment appends a fragment and returns its builder index.
func (b *Builder) AddFragment(f Fragment) int {
	b.fragments = append(b.fragments, f)
	return len(b.fragments) - 1
}

// AddLoss appends a loss between two existing fragments and returns its builder index.
// Returns ErrVertexNotFound, ErrLoopNotAllowed or ErrDuplicateLoss.
func (b *Builder) AddLoss(l Loss) (int, error) {
	if l.Head < 0 || l.Head >= len(b.fragments) || l.Tail < 0 || l.Tail >= len(b.fragments) {
		return -1, fmt.Errorf("%w: loss %d→%d with %d fragments", ErrVertexNotFound, l.Head, l.Tail, len(b.fragments))
	}
	if l.Head == l.Tail {
		return -1, fmt.Errorf("%w: %d", ErrLoopNotAllowed, l.Head)
	}
	key := [2]int{l.Head, l.Tail}
	if _, dup := b.pairs[key]; dup {
		return -1, fmt.Errorf("%w: %d→%d", ErrDuplicateLoss, l.Head, l.Tail)
	}
	b.pairs[key] = struct{}{}
	b.losses = append(b.losses, l)

	return len(b.losses) - 1, nil
}

// SetRoot designates the root fragment.
func (b *Builder) SetRoot(v int) error {
	if v < 0 || v >= len(b.fragments) {
		return fmt.Errorf("%w: root %d", ErrVertexNotFound, v)
	}
	b.root = v
	return nil
}

// Build validates the accumulated candidates and returns the Graph restricted
// to the vertices reachable from the root. Vertex and edge indices of the
// result are dense; Graph.Origin maps them back to builder indices.
//
// Errors: ErrNoRoot, ErrBadWeight, ErrLossIntoRoot, ErrCycle.
//
// Complexity: O(V + E).
func (b *Builder) Build() (*Graph, error) {
	// 1. Root and weights.
	if b.root < 0 {
		return nil, ErrNoRoot
	}
	for i, f := range b.fragments {
		if math.IsNaN(f.Weight) || math.IsInf(f.Weight, 0) {
			return nil, fmt.Errorf("%w: fragment %d = %v", ErrBadWeight, i, f.Weight)
		}
	}
	for i, l := range b.losses {
		if math.IsNaN(l.Weight) || math.IsInf(l.Weight, 0) {
			return nil, fmt.Errorf("%w: loss %d = %v", ErrBadWeight, i, l.Weight)
		}
		if l.Tail == b.root {
			return nil, fmt.Errorf("%w: loss %d from %d", ErrLossIntoRoot, i, l.Head)
		}
	}

	// 2. Builder-level adjacency.
	n := len(b.fragments)
	out := make([][]int, n)
	for i, l := range b.losses {
		out[l.Head] = append(out[l.Head], i)
	}

	// 3. Reachability (with cycle detection) and topological order.
	reach, err := reachFromRoot(b.root, n, out, b.losses)
	if err != nil {
		return nil, err
	}
	order := topoOrder(b.root, reach, out, b.losses)

	// 4. Remap reachable vertices in topological order; the root becomes 0.
	remap := make([]int, n)
	for i := range remap {
		remap[i] = -1
	}
	g := &Graph{
		fragments: make([]Fragment, len(order)),
		origin:    make([]int, len(order)),
		incoming:  make([][]int, len(order)),
		outgoing:  make([][]int, len(order)),
	}
	for newID, old := range order {
		remap[old] = newID
		g.fragments[newID] = b.fragments[old]
		g.origin[newID] = old
	}
	g.root = 0

	// 5. Keep losses whose head is reachable (the tail then is too).
	for _, l := range b.losses {
		h := remap[l.Head]
		if h < 0 {
			continue
		}
		t := remap[l.Tail]
		e := len(g.losses)
		g.losses = append(g.losses, Loss{Head: h, Tail: t, Formula: l.Formula, Weight: l.Weight})
		g.outgoing[h] = append(g.outgoing[h], e)
		g.incoming[t] = append(g.incoming[t], e)
	}
	g.finish()

	return g, nil
}

const (
	white = iota
	gray
	black
)

// reachFromRoot runs an iterative three-color DFS from root over out and
// marks the reachable vertices. A back edge yields ErrCycle.
func reachFromRoot(root, n int, out [][]int, losses []Loss) ([]bool, error) {
	type frame struct {
		v    int
		next int
	}
	state := make([]uint8, n)
	stack := []frame{{v: root}}
	state[root] = gray
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(out[top.v]) {
			e := out[top.v][top.next]
			top.next++
			u := losses[e].Tail
			switch state[u] {
			case gray:
				return nil, fmt.Errorf("%w: through loss %d→%d", ErrCycle, top.v, u)
			case white:
				state[u] = gray
				stack = append(stack, frame{v: u})
			}
			continue
		}
		state[top.v] = black
		stack = stack[:len(stack)-1]
	}
	reach := make([]bool, n)
	for v, s := range state {
		reach[v] = s == black
	}

	return reach, nil
}

// topoOrder returns the reachable vertices in topological order, breaking
// ties by the smallest builder index so that already ordered input keeps its
// order. The root is the only reachable vertex without a reachable parent and
// therefore comes first.
func topoOrder(root int, reach []bool, out [][]int, losses []Loss) []int {
	indeg := make([]int, len(reach))
	for v, ok := range reach {
		if !ok {
			continue
		}
		for _, e := range out[v] {
			indeg[losses[e].Tail]++
		}
	}
	ready := &intHeap{root}
	order := make([]int, 0, len(reach))
	for ready.Len() > 0 {
		v := heap.Pop(ready).(int)
		order = append(order, v)
		for _, e := range out[v] {
			u := losses[e].Tail
			if indeg[u]--; indeg[u] == 0 {
				heap.Push(ready, u)
			}
		}
	}
	return order
}

// intHeap is a min-heap of ints for container/heap.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
