package milp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// colName is the LP-file name of column e.
func colName(e int) string { return "x" + strconv.Itoa(e) }

// WriteLP writes m in CPLEX LP format. The objective constant is omitted;
// Constant is added back by the caller.
func WriteLP(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, `\ fragtree colorful subtree model`)
	fmt.Fprintln(bw, "Maximize")
	fmt.Fprint(bw, " obj:")
	writeTerms(bw, m.Cost, nil)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Subject To")
	for _, r := range m.Rows {
		fmt.Fprintf(bw, " %s:", r.Name)
		writeTerms(bw, r.Coefs, r.Cols)
		fmt.Fprintf(bw, " <= %s\n", formatNum(r.Upper))
	}

	fmt.Fprintln(bw, "Bounds")
	for e, ub := range m.Upper {
		fmt.Fprintf(bw, " 0 <= %s <= %s\n", colName(e), formatNum(ub))
	}

	if len(m.Cost) > 0 {
		fmt.Fprintln(bw, "Binary")
		for e := range m.Cost {
			fmt.Fprintf(bw, " %s\n", colName(e))
		}
	}
	fmt.Fprintln(bw, "End")

	return bw.Flush()
}

// writeTerms writes " + c x" terms; cols == nil means column i for coef i.
// An all-zero expression is written as "0 x0" or "0" so that the line stays
// parseable.
func writeTerms(w io.Writer, coefs []float64, cols []int) {
	wrote := false
	for i, c := range coefs {
		if c == 0 {
			continue
		}
		col := i
		if cols != nil {
			col = cols[i]
		}
		sign := "+"
		if c < 0 {
			sign, c = "-", -c
		}
		fmt.Fprintf(w, " %s %s %s", sign, formatNum(c), colName(col))
		wrote = true
	}
	if !wrote {
		if len(coefs) > 0 {
			col := 0
			if cols != nil {
				col = cols[0]
			}
			fmt.Fprintf(w, " 0 %s", colName(col))
			return
		}
		fmt.Fprint(w, " 0")
	}
}

func formatNum(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
