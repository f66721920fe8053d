package heuristic

import (
	"container/heap"
	"context"
	"math/rand"
	"sort"

	"github.com/katalvlaran/fragtree/core"
)

// Prim is the randomized Prim-style growth heuristic.
type Prim struct {
	timer
	variant  Variant
	restarts int
	noise    float64
}

// NewPrim returns a Prim heuristic of the given variant.
func NewPrim(v Variant, opts ...PrimOption) *Prim {
	p := &Prim{variant: v, restarts: DefaultRestarts, noise: DefaultNoise}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "prim-edge" or "prim-star".
func (p *Prim) Name() string {
	if p.variant == PrimStar {
		return NamePrimStar
	}
	return NamePrimEdge
}

// ThreadSafe reports true; every call derives its own random streams.
func (*Prim) ThreadSafe() bool { return true }

// ComputeTree builds one tree, the best over all restarts.
func (p *Prim) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	return computeTree(ctx, p.Name(), &p.timer, p.grow, g, opts)
}

// ComputeMultipleTrees returns up to k distinct trees, best first.
func (p *Prim) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	return computeMultipleTrees(ctx, p.Name(), &p.timer, p.grow, g, k, opts)
}

// frontierItem is a candidate edge. key orders the heap; tie breaks equal
// keys randomly; base is the unperturbed key at push time.
type frontierItem struct {
	key  float64
	tie  float64
	base float64
	edge int
}

// frontier is a max-heap of frontierItem for container/heap.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].key != f[j].key {
		return f[i].key > f[j].key
	}
	return f[i].tie > f[j].tie
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	it := old[len(old)-1]
	*f = old[:len(old)-1]
	return it
}

// grower holds the state of one restart.
type grower struct {
	w     *work
	rng   *rand.Rand
	noise float64
	h     frontier
}

func (p *Prim) grow(g *core.Graph, excluded []bool, dl core.Deadline, opts core.Options) (*core.Tree, bool, error) {
	fp := fingerprint(g)
	seedEdges := core.TemplateEdges(g, opts.Template)
	var best *work
	interrupted := false

	for r := 0; r < p.restarts; r++ {
		gr := &grower{
			w:   newWork(g, excluded),
			rng: restartRNG(opts.Seed, fp, r),
		}
		if r > 0 {
			gr.noise = p.noise
		}
		gr.w.seed(seedEdges)
		if p.variant == PrimStar {
			interrupted = gr.growStars(dl)
		} else {
			interrupted = gr.growEdges(dl)
		}
		gr.w.pruneNegative()
		if best == nil || gr.w.score > best.score+core.ScoreTolerance {
			best = gr.w
		}
		if interrupted {
			break
		}
	}

	t, err := best.tree()
	return t, interrupted, err
}

// lookahead is the best positive gain of a single edge below v under the
// current colors, not counting v's own color.
func (gr *grower) lookahead(v int) float64 {
	g, w := gr.w.g, gr.w
	best := 0.0
	for _, e := range g.Outgoing(v) {
		u := g.Loss(e).Tail
		if !w.allowed(e) || w.has(u) || !w.colorFree(u) || g.ColorIndex(u) == g.ColorIndex(v) {
			continue
		}
		if x := g.Gain(e); x > best {
			best = x
		}
	}
	return best
}

// starValue is the gain of e plus, per color, the best positive child edge
// of tail(e).
func (gr *grower) starValue(e int) (float64, []int) {
	g, w := gr.w.g, gr.w
	u := g.Loss(e).Tail
	best := make(map[int]int) // color → child edge
	for _, ce := range g.Outgoing(u) {
		x := g.Loss(ce).Tail
		ci := g.ColorIndex(x)
		if !w.allowed(ce) || w.has(x) || !w.colorFree(x) || ci == g.ColorIndex(u) || g.Gain(ce) <= 0 {
			continue
		}
		if prev, ok := best[ci]; !ok || g.Gain(ce) > g.Gain(prev) {
			best[ci] = ce
		}
	}
	kids := make([]int, 0, len(best))
	for _, ce := range best {
		kids = append(kids, ce)
	}
	sort.Ints(kids)
	val := g.Gain(e)
	for _, ce := range kids {
		val += g.Gain(ce)
	}
	return val, kids
}

func (gr *grower) push(e int, key float64) {
	heap.Push(&gr.h, frontierItem{key: jitter(key, gr.noise, gr.rng), tie: gr.rng.Float64(), base: key, edge: e})
}

func (gr *grower) pushFrom(v int, keyOf func(e int) float64) {
	for _, e := range gr.w.g.Outgoing(v) {
		if gr.w.canAdd(e) {
			gr.push(e, keyOf(e))
		}
	}
}

func (gr *grower) pushAll(keyOf func(e int) float64) {
	for v := range gr.w.in {
		if gr.w.has(v) {
			gr.pushFrom(v, keyOf)
		}
	}
}

// growEdges attaches single edges in key order.
func (gr *grower) growEdges(dl core.Deadline) bool {
	g, w := gr.w.g, gr.w
	keyOf := func(e int) float64 { return g.Gain(e) + gr.lookahead(g.Loss(e).Tail) }
	gr.pushAll(keyOf)
	for pops := 1; gr.h.Len() > 0; pops++ {
		if pops%checkEvery == 0 && dl.Exceeded() {
			return true
		}
		it := heap.Pop(&gr.h).(frontierItem)
		if !w.canAdd(it.edge) {
			continue
		}
		// Lazy recompute: colors used since the push may lower the key.
		if cur := keyOf(it.edge); cur < it.base-core.ScoreTolerance {
			gr.push(it.edge, cur)
			continue
		}
		if it.base <= 0 {
			continue
		}
		w.add(it.edge)
		gr.pushFrom(g.Loss(it.edge).Tail, keyOf)
	}
	return false
}

// growStars attaches a vertex with its best positive children at once.
func (gr *grower) growStars(dl core.Deadline) bool {
	g, w := gr.w.g, gr.w
	keyOf := func(e int) float64 { v, _ := gr.starValue(e); return v }
	gr.pushAll(keyOf)
	for pops := 1; gr.h.Len() > 0; pops++ {
		if pops%checkEvery == 0 && dl.Exceeded() {
			return true
		}
		it := heap.Pop(&gr.h).(frontierItem)
		if !w.canAdd(it.edge) {
			continue
		}
		cur, kids := gr.starValue(it.edge)
		if cur < it.base-core.ScoreTolerance {
			gr.push(it.edge, cur)
			continue
		}
		if it.base <= 0 {
			continue
		}
		w.add(it.edge)
		u := g.Loss(it.edge).Tail
		sort.SliceStable(kids, func(i, j int) bool { return g.Gain(kids[i]) > g.Gain(kids[j]) })
		for _, ce := range kids {
			if w.canAdd(ce) {
				w.add(ce)
				gr.pushFrom(g.Loss(ce).Tail, keyOf)
			}
		}
		gr.pushFrom(u, keyOf)
	}
	return false
}
