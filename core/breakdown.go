package core

// ScoreBreakdown records, per scorer, the contribution to every vertex and
// every edge of one finished tree. Scores are parallel arrays indexed by the
// position of the vertex in Vertices and of the edge in Edges.
type ScoreBreakdown struct {
	// Scorers lists scorer names; row i of VertexScores and EdgeScores
	// belongs to Scorers[i].
	Scorers []string

	// Vertices and Edges snapshot Tree.Vertices and Tree.Edges.
	Vertices []int
	Edges    []int

	VertexScores [][]float64
	EdgeScores   [][]float64
}

// NewScoreBreakdown allocates a zeroed breakdown for t and the given scorers.
func NewScoreBreakdown(t *Tree, scorers []string) *ScoreBreakdown {
	b := &ScoreBreakdown{
		Scorers:      append([]string(nil), scorers...),
		Vertices:     t.Vertices(),
		Edges:        t.Edges(),
		VertexScores: make([][]float64, len(scorers)),
		EdgeScores:   make([][]float64, len(scorers)),
	}
	for i := range scorers {
		b.VertexScores[i] = make([]float64, len(b.Vertices))
		b.EdgeScores[i] = make([]float64, len(b.Edges))
	}
	return b
}

func (b *ScoreBreakdown) row(scorer string) int {
	for i, s := range b.Scorers {
		if s == scorer {
			return i
		}
	}
	return -1
}

// Total returns the summed contribution of one scorer over the whole tree.
func (b *ScoreBreakdown) Total(scorer string) (float64, bool) {
	i := b.row(scorer)
	if i < 0 {
		return 0, false
	}
	var s float64
	for _, x := range b.VertexScores[i] {
		s += x
	}
	for _, x := range b.EdgeScores[i] {
		s += x
	}
	return s, true
}

// Vertex returns the contribution of scorer to graph vertex v.
func (b *ScoreBreakdown) Vertex(scorer string, v int) (float64, bool) {
	i := b.row(scorer)
	if i < 0 {
		return 0, false
	}
	for p, u := range b.Vertices {
		if u == v {
			return b.VertexScores[i][p], true
		}
	}
	return 0, false
}

// Edge returns the contribution of scorer to graph edge e.
func (b *ScoreBreakdown) Edge(scorer string, e int) (float64, bool) {
	i := b.row(scorer)
	if i < 0 {
		return 0, false
	}
	for p, x := range b.Edges {
		if x == e {
			return b.EdgeScores[i][p], true
		}
	}
	return 0, false
}
