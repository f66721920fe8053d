package formula

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for formula parsing and arithmetic.
var (
	// ErrSyntax indicates a malformed formula string.
	ErrSyntax = errors.New("formula: syntax error")

	// ErrUnknownElement indicates an element symbol outside the supported table.
	ErrUnknownElement = errors.New("formula: unknown element")

	// ErrNegativeCount indicates an arithmetic result with a negative element count.
	ErrNegativeCount = errors.New("formula: negative element count")
)

// element describes one entry of the supported periodic table.
type element struct {
	symbol  string
	mass    float64 // monoisotopic mass of the most abundant isotope
	valence int
}

// table is ordered by index; the index is the position in Formula.counts.
var table = [...]element{
	{"C", 12.0, 4},
	{"H", 1.00782503207, 1},
	{"N", 14.0030740048, 3},
	{"O", 15.99491461956, 2},
	{"P", 30.97376163, 3},
	{"S", 31.97207100, 2},
	{"F", 18.99840322, 1},
	{"Cl", 34.96885268, 1},
	{"Br", 78.9183371, 1},
	{"I", 126.904473, 1},
	{"Si", 27.9769265325, 4},
	{"B", 11.0093054, 3},
	{"Se", 79.9165213, 2},
	{"Na", 22.9897692809, 1},
	{"K", 38.96370668, 1},
}

const (
	idxC = 0
	idxH = 1

	numElements = len(table)
)

// symbolIndex maps element symbol to table index.
var symbolIndex = func() map[string]int {
	m := make(map[string]int, numElements)
	for i, e := range table {
		m[e.symbol] = i
	}
	return m
}()

// hillOrder lists table indices in Hill order for formulas that contain carbon:
// C, H, then the remaining symbols alphabetically.
var hillOrder = func() []int {
	rest := make([]int, 0, numElements-2)
	for i := range table {
		if i != idxC && i != idxH {
			rest = append(rest, i)
		}
	}
	sort.Slice(rest, func(a, b int) bool { return table[rest[a]].symbol < table[rest[b]].symbol })
	return append([]int{idxC, idxH}, rest...)
}()

// alphaOrder lists all table indices alphabetically (used when no carbon is present).
var alphaOrder = func() []int {
	all := make([]int, numElements)
	for i := range all {
		all[i] = i
	}
	sort.Slice(all, func(a, b int) bool { return table[all[a]].symbol < table[all[b]].symbol })
	return all
}()

// Formula is a molecular formula as a vector of element counts.
// The zero value is the empty formula.
type Formula struct {
	counts [numElements]int32
}

// Parse reads a formula such as "C6H12O6" or "CH3Cl".
// An empty string yields the empty formula.
func Parse(s string) (Formula, error) {
	var (
		f Formula
		i int
	)
	s = strings.TrimSpace(s)
	for i < len(s) {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return Formula{}, fmt.Errorf("%w: unexpected %q at %d in %q", ErrSyntax, c, i, s)
		}
		j := i + 1
		for j < len(s) && s[j] >= 'a' && s[j] <= 'z' {
			j++
		}
		sym := s[i:j]
		idx, ok := symbolIndex[sym]
		if !ok {
			return Formula{}, fmt.Errorf("%w: %q", ErrUnknownElement, sym)
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		n := 1
		if k > j {
			v, err := strconv.Atoi(s[j:k])
			if err != nil {
				return Formula{}, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			n = v
		}
		f.counts[idx] += int32(n)
		i = k
	}

	return f, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Formula {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// String renders the formula in Hill order. The empty formula renders as "".
func (f Formula) String() string {
	order := alphaOrder
	if f.counts[idxC] > 0 {
		order = hillOrder
	}
	var b strings.Builder
	for _, i := range order {
		n := f.counts[i]
		if n == 0 {
			continue
		}
		b.WriteString(table[i].symbol)
		if n != 1 {
			b.WriteString(strconv.Itoa(int(n)))
		}
	}
	return b.String()
}

// IsEmpty reports whether all element counts are zero.
func (f Formula) IsEmpty() bool {
	return f == Formula{}
}

// Count returns the number of atoms of the given element symbol (0 if unknown).
func (f Formula) Count(symbol string) int {
	idx, ok := symbolIndex[symbol]
	if !ok {
		return 0
	}
	return int(f.counts[idx])
}

// Mass returns the monoisotopic mass of the neutral formula.
func (f Formula) Mass() float64 {
	var m float64
	for i, n := range f.counts {
		m += float64(n) * table[i].mass
	}
	return m
}

// Add returns f + o.
func (f Formula) Add(o Formula) Formula {
	for i := range f.counts {
		f.counts[i] += o.counts[i]
	}
	return f
}

// Sub returns f − o, or ErrNegativeCount if o is not contained in f.
func (f Formula) Sub(o Formula) (Formula, error) {
	for i := range f.counts {
		f.counts[i] -= o.counts[i]
		if f.counts[i] < 0 {
			return Formula{}, fmt.Errorf("%w: %s in %s", ErrNegativeCount, table[i].symbol, f)
		}
	}
	return f, nil
}

// IsSubformulaOf reports whether f is a proper subformula of o: every count in f
// is at most the count in o, and f != o.
func (f Formula) IsSubformulaOf(o Formula) bool {
	if f == o {
		return false
	}
	for i := range f.counts {
		if f.counts[i] > o.counts[i] {
			return false
		}
	}
	return true
}

// RDBE returns the ring-double-bond equivalent 1 + Σ nᵢ(vᵢ−2)/2.
func (f Formula) RDBE() float64 {
	var s float64
	for i, n := range f.counts {
		s += float64(n) * float64(table[i].valence-2)
	}
	return 1 + s/2
}
