package domain

import "strings"

// Table is a header row plus data rows, every row padded to the header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// TableFromGrid treats grid[0] as the header. Blank rows are dropped and ragged rows
// are padded or cut to the header width.
func TableFromGrid(grid [][]string) Table {
	if len(grid) == 0 {
		return Table{}
	}
	headers := trimTrailingBlank(grid[0])
	t := Table{Headers: append([]string(nil), headers...)}
	for _, r := range grid[1:] {
		if isBlank(r) {
			continue
		}
		t.Rows = append(t.Rows, fit(r, len(headers)))
	}
	return t
}

func (t Table) Len() int { return len(t.Rows) }
func (t Table) Empty() bool { return len(t.Headers) == 0 }

// Grid is the inverse of TableFromGrid.
func (t Table) Grid() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Headers...))
	for _, r := range t.Rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// Index returns the position of col, or -1.
func (t Table) Index(col string) int {
	for i, h := range t.Headers {
		if h == col {
			return i
		}
	}
	return -1
}

func (t Table) Has(col string) bool { return t.Index(col) >= 0 }

// Column returns every value of col; nil if absent.
func (t Table) Column(col string) []string {
	i := t.Index(col)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for n, r := range t.Rows {
		out[n] = r[i]
	}
	return out
}

func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if h == "" {
				continue
			}
			m[h] = r[i]
		}
		out = append(out, m)
	}
	return out
}

// Align reorders rows to the given header; missing columns become "".
func (t Table) Align(headers []string) [][]string {
	pos := make([]int, len(headers))
	for i, h := range headers {
		pos[i] = t.Index(h)
	}
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, len(headers))
		for i, p := range pos {
			if p >= 0 {
				row[i] = r[p]
			}
		}
		out = append(out, row)
	}
	return out
}

// Select keeps the rows accepted by keep.
func (t Table) Select(keep func(row []string) bool) Table {
	out := Table{Headers: t.Headers}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// UnionHeaders returns a followed by the columns of b it lacks, in b's order.
func UnionHeaders(a, b []string) []string {
	out := append([]string(nil), a...)
	seen := make(map[string]bool, len(a))
	for _, h := range a {
		seen[h] = true
	}
	for _, h := range b {
		if !seen[h] {
			out = append(out, h)
			seen[h] = true
		}
	}
	return out
}

func fit(r []string, n int) []string {
	row := make([]string, n)
	copy(row, r)
	return row
}

func isBlank(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(r []string) []string {
	n := len(r)
	for n > 0 && strings.TrimSpace(r[n-1]) == "" {
		n--
	}
	return r[:n]
}
