package heuristic

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/katalvlaran/fragtree/core"
)

// defaultSeed stands in for Options.Seed 0.
const defaultSeed int64 = 1

// fingerprint hashes the structure and weights of g. One seed thus gives
// the same restart noise on the same graph and unrelated noise elsewhere.
func fingerprint(g *core.Graph) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(x uint64) {
		binary.LittleEndian.PutUint64(buf[:], x)
		_, _ = d.Write(buf[:])
	}
	put(uint64(g.NumVertices()))
	for v := 0; v < g.NumVertices(); v++ {
		put(uint64(g.Color(v)))
		put(math.Float64bits(g.VertexWeight(v)))
	}
	for e := 0; e < g.NumEdges(); e++ {
		l := g.Loss(e)
		put(uint64(l.Head)<<32 | uint64(uint32(l.Tail)))
		put(math.Float64bits(l.Weight))
	}
	return d.Sum64()
}

// restartRNG returns the noise source of restart r on the graph with
// fingerprint fp.
func restartRNG(seed int64, fp uint64, r int) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], fp)
	binary.LittleEndian.PutUint64(buf[16:], uint64(r))
	return rand.New(rand.NewSource(int64(xxhash.Sum64(buf[:]))))
}

// jitter returns key perturbed by relative noise drawn from rng.
func jitter(key, noise float64, rng *rand.Rand) float64 {
	if noise == 0 {
		return key
	}
	mag := key
	if mag < 0 {
		mag = -mag
	}
	if mag < 1 {
		mag = 1
	}
	return key + noise*mag*(2*rng.Float64()-1)
}
