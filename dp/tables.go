package dp

import (
	"math/bits"

	"github.com/katalvlaran/fragtree/core"
)

// fEntry is one of the k best ways to realize F_v[S]. t == 0 marks the
// leaf entry F_v[∅]; otherwise t is the canonical child block T and ci, fi
// are the ranks used in C_v[T] and F_v[S \ T].
type fEntry struct {
	score  float64
	t      uint32
	ci, fi int32
}

// cEntry is one of the k best ways to realize C_v[T]: edge into the child
// and the child's cell (sub, rank).
type cEntry struct {
	score float64
	edge  int32
	sub   uint32
	rank  int32
}

// vtable holds the compressed tables of one vertex. Cell idx of a table is
// the subset expand(idx, reach); cell lists occupy [idx*k, idx*k+n[idx]).
type vtable struct {
	reach uint32
	size  int
	f     []fEntry
	fn    []int32
	c     []cEntry
	cn    []int32
}

type tables struct {
	g       *core.Graph
	k       int
	bit     []uint32 // vertex → color bit; 0 for the root color
	allowed []bool
	vt      []vtable
	dl      core.Deadline
	steps   int
}

// newTables assigns one bit to every kept non-root color. keep is indexed by
// dense color index; vertices of dropped colors and non-root vertices of
// the root color never enter a table.
func newTables(g *core.Graph, keep []bool, k int, dl core.Deadline) *tables {
	n := g.NumVertices()
	tb := &tables{
		g:       g,
		k:       k,
		bit:     make([]uint32, n),
		allowed: make([]bool, n),
		vt:      make([]vtable, n),
		dl:      dl,
	}
	rootColor := g.ColorIndex(g.Root())
	slot := make([]int, g.NumColors())
	next := 0
	for ci := range slot {
		if ci == rootColor || !keep[ci] {
			slot[ci] = -1
			continue
		}
		slot[ci] = next
		next++
	}
	for v := 0; v < n; v++ {
		if v == g.Root() {
			tb.allowed[v] = true
			continue
		}
		if sl := slot[g.ColorIndex(v)]; sl >= 0 {
			tb.allowed[v] = true
			tb.bit[v] = 1 << uint(sl)
		}
	}
	return tb
}

// compress maps a subset s of r to its index among the subsets of r.
func compress(s, r uint32) uint32 {
	var idx, b uint32 = 0, 1
	for r != 0 {
		low := r & -r
		if s&low != 0 {
			idx |= b
		}
		b <<= 1
		r &^= low
	}
	return idx
}

// expand is the inverse of compress.
func expand(idx, r uint32) uint32 {
	var s uint32
	for r != 0 {
		low := r & -r
		if idx&1 != 0 {
			s |= low
		}
		idx >>= 1
		r &^= low
	}
	return s
}

// tick counts inner steps and reports whether the budget is exhausted.
func (tb *tables) tick() bool {
	tb.steps++
	if tb.steps&(checkEvery-1) == 0 {
		return tb.dl.Exceeded()
	}
	return false
}

// insertF keeps list (sorted by descending score, n entries) as the k best.
// Equal scores keep insertion order.
func insertF(list []fEntry, n int32, e fEntry) (int32, bool) {
	k := int32(len(list))
	if n == k && e.score <= list[n-1].score {
		return n, false
	}
	i := n
	if n == k {
		i = n - 1
	} else {
		n++
	}
	for i > 0 && list[i-1].score < e.score {
		list[i] = list[i-1]
		i--
	}
	list[i] = e
	return n, true
}

func insertC(list []cEntry, n int32, e cEntry) (int32, bool) {
	k := int32(len(list))
	if n == k && e.score <= list[n-1].score {
		return n, false
	}
	i := n
	if n == k {
		i = n - 1
	} else {
		n++
	}
	for i > 0 && list[i-1].score < e.score {
		list[i] = list[i-1]
		i--
	}
	list[i] = e
	return n, true
}

// fill computes all tables bottom-up. It returns false when the deadline
// interrupted the computation.
func (tb *tables) fill() bool {
	g, k := tb.g, tb.k
	for v := g.NumVertices() - 1; v >= 0; v-- {
		if !tb.allowed[v] {
			continue
		}
		// 1. Colors below v.
		var reach uint32
		for _, e := range g.Outgoing(v) {
			u := g.Loss(e).Tail
			if !tb.allowed[u] || tb.bit[u] == tb.bit[v] {
				continue
			}
			reach |= tb.bit[u] | tb.vt[u].reach
		}
		reach &^= tb.bit[v]
		size := 1 << bits.OnesCount32(reach)
		t := &tb.vt[v]
		*t = vtable{
			reach: reach,
			size:  size,
			f:     make([]fEntry, size*k),
			fn:    make([]int32, size),
			c:     make([]cEntry, size*k),
			cn:    make([]int32, size),
		}

		// 2. C_v: push every child cell up through its edge.
		for _, e := range g.Outgoing(v) {
			u := g.Loss(e).Tail
			if !tb.allowed[u] || tb.bit[u] == tb.bit[v] {
				continue
			}
			ut := &tb.vt[u]
			w := g.EdgeWeight(e)
			for sub := 0; sub < ut.size; sub++ {
				if ut.fn[sub] == 0 {
					continue
				}
				full := expand(uint32(sub), ut.reach)
				if full&tb.bit[v] != 0 {
					continue
				}
				idx := compress(full|tb.bit[u], reach)
				cell := t.c[int(idx)*k : int(idx+1)*k]
				for r := int32(0); r < ut.fn[sub]; r++ {
					if tb.tick() {
						return false
					}
					var ok bool
					ce := cEntry{score: w + ut.f[sub*k+int(r)].score, edge: int32(e), sub: uint32(sub), rank: r}
					if t.cn[idx], ok = insertC(cell, t.cn[idx], ce); !ok {
						break
					}
				}
			}
		}

		// 3. F_v: canonical split on the lowest color.
		t.f[0] = fEntry{score: g.VertexWeight(v)}
		t.fn[0] = 1
		for s := 1; s < size; s++ {
			idx := uint32(s)
			low := idx & -idx
			rest := idx ^ low
			cell := t.f[s*k : (s+1)*k]
			for x := rest; ; x = (x - 1) & rest {
				blk := x | low
				other := idx ^ blk
				cl, cn := t.c[int(blk)*k:], t.cn[blk]
				fl, fn := t.f[int(other)*k:], t.fn[other]
				for i := int32(0); i < cn; i++ {
					accepted := false
					for j := int32(0); j < fn; j++ {
						if tb.tick() {
							return false
						}
						var ok bool
						fe := fEntry{score: cl[i].score + fl[j].score, t: blk, ci: i, fi: j}
						if t.fn[s], ok = insertF(cell, t.fn[s], fe); !ok {
							break
						}
						accepted = true
					}
					if !accepted {
						break
					}
				}
				if x == 0 {
					break
				}
			}
		}
	}
	return true
}

// pick addresses one root cell entry.
type pick struct {
	score float64
	idx   uint32
	rank  int32
}

// best returns the k best root entries over all color sets, descending.
// Among equal scores the first cell in index order wins.
func (tb *tables) best(k int) []pick {
	rt := &tb.vt[tb.g.Root()]
	out := make([]pick, 0, k)
	for s := 0; s < rt.size; s++ {
		for r := int32(0); r < rt.fn[s]; r++ {
			p := pick{score: rt.f[s*tb.k+int(r)].score, idx: uint32(s), rank: r}
			if len(out) == k && p.score <= out[k-1].score {
				break
			}
			if len(out) < k {
				out = append(out, p)
			} else {
				out[k-1] = p
			}
			for i := len(out) - 1; i > 0 && out[i-1].score < out[i].score; i-- {
				out[i-1], out[i] = out[i], out[i-1]
			}
		}
	}
	return out
}

// backtrack appends the edges of the tree behind cell (v, idx, rank).
func (tb *tables) backtrack(v int, idx uint32, rank int32, out []int) []int {
	for idx != 0 {
		t := &tb.vt[v]
		fe := t.f[int(idx)*tb.k+int(rank)]
		ce := t.c[int(fe.t)*tb.k+int(fe.ci)]
		out = append(out, int(ce.edge))
		u := tb.g.Loss(int(ce.edge)).Tail
		out = tb.backtrack(u, ce.sub, ce.rank, out)
		idx, rank = idx^fe.t, fe.fi
	}
	return out
}
