package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump edge weights are folded: an edge carries w(e) + w(tail), so a reader
// that only knows edge weights recovers the tree score up to w(root). Colors
// are written as dense color indices.

func formatFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

// WriteGraphDump writes g in the debug dump format with the given score line.
func WriteGraphDump(w io.Writer, g *Graph, score float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%s\n", g.NumVertices(), g.NumEdges(), g.NumColors(), formatFloat(score))
	for v := 0; v < g.NumVertices(); v++ {
		fmt.Fprintf(bw, "%d %d\n", v, g.ColorIndex(v))
	}
	for e := 0; e < g.NumEdges(); e++ {
		l := g.losses[e]
		fmt.Fprintf(bw, "%d %d %s\n", l.Head, l.Tail, formatFloat(g.Gain(e)))
	}
	return bw.Flush()
}

// WriteTreeDump writes t in the debug dump format. Vertices are renumbered
// by their position in t.Vertices(); the score line is t.Score().
func WriteTreeDump(w io.Writer, t *Tree) error {
	g := t.g
	vs := t.Vertices()
	local := make(map[int]int, len(vs))
	for i, v := range vs {
		local[v] = i
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%s\n", len(vs), len(t.edges), len(vs), formatFloat(t.score))
	for i, v := range vs {
		fmt.Fprintf(bw, "%d %d\n", i, g.ColorIndex(v))
	}
	for _, e := range t.edges {
		l := g.losses[e]
		fmt.Fprintf(bw, "%d %d %s\n", local[l.Head], local[l.Tail], formatFloat(g.Gain(e)))
	}
	return bw.Flush()
}

// ReadDump parses a debug dump. Vertex 0 becomes the root; vertex weights are
// zero and edge weights are taken as written. The score line is returned as is.
//
// Errors wrap ErrDumpFormat, or the Builder errors for structurally invalid
// graphs.
func ReadDump(r io.Reader) (*Graph, float64, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() ([]string, error) {
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, nil
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: unexpected end of input after line %d", ErrDumpFormat, line)
	}
	header := func(name string) (string, error) {
		f, err := next()
		if err != nil {
			return "", err
		}
		if len(f) != 1 {
			return "", fmt.Errorf("%w: line %d: expected %s", ErrDumpFormat, line, name)
		}
		return f[0], nil
	}
	atoi := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: line %d: %v", ErrDumpFormat, line, err)
		}
		return n, nil
	}

	// 1. Header.
	var counts [3]int
	for i, name := range []string{"vertex count", "edge count", "color count"} {
		s, err := header(name)
		if err != nil {
			return nil, 0, err
		}
		if counts[i], err = atoi(s); err != nil {
			return nil, 0, err
		}
		if counts[i] < 0 {
			return nil, 0, fmt.Errorf("%w: line %d: negative %s", ErrDumpFormat, line, name)
		}
	}
	s, err := header("score")
	if err != nil {
		return nil, 0, err
	}
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: line %d: %v", ErrDumpFormat, line, err)
	}
	n, m, nc := counts[0], counts[1], counts[2]
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: no vertices", ErrDumpFormat)
	}

	// 2. Vertices, in index order.
	b := NewBuilder(WithCapacity(n, m))
	distinct := make(map[Color]struct{}, nc)
	for i := 0; i < n; i++ {
		f, err := next()
		if err != nil {
			return nil, 0, err
		}
		if len(f) != 2 {
			return nil, 0, fmt.Errorf("%w: line %d: expected \"<index> <color>\"", ErrDumpFormat, line)
		}
		idx, err := atoi(f[0])
		if err != nil {
			return nil, 0, err
		}
		if idx != i {
			return nil, 0, fmt.Errorf("%w: line %d: vertex %d out of order", ErrDumpFormat, line, idx)
		}
		c, err := atoi(f[1])
		if err != nil {
			return nil, 0, err
		}
		distinct[Color(c)] = struct{}{}
		b.AddFragment(Fragment{Peak: -1, Color: Color(c)})
	}
	if len(distinct) != nc {
		return nil, 0, fmt.Errorf("%w: header announces %d colors, found %d", ErrDumpFormat, nc, len(distinct))
	}

	// 3. Edges.
	for i := 0; i < m; i++ {
		f, err := next()
		if err != nil {
			return nil, 0, err
		}
		if len(f) != 3 {
			return nil, 0, fmt.Errorf("%w: line %d: expected \"<head> <tail> <weight>\"", ErrDumpFormat, line)
		}
		h, err := atoi(f[0])
		if err != nil {
			return nil, 0, err
		}
		t, err := atoi(f[1])
		if err != nil {
			return nil, 0, err
		}
		w, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %v", ErrDumpFormat, line, err)
		}
		if _, err := b.AddLoss(Loss{Head: h, Tail: t, Weight: w}); err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := b.SetRoot(0); err != nil {
		return nil, 0, err
	}
	g, err := b.Build()
	if err != nil {
		return nil, 0, err
	}

	return g, score, nil
}
