// Package catalog holds the pure catalog logic: upload parsing, column mapping,
// snapshot diffing, formatted export and stock classification.
package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"quotedesk/internal/domain"
)

// MatchCutoff is the minimum similarity for an approximate column match.
const MatchCutoff = 0.4

// Skip marks a target column with no source column.
const Skip = ""

// MatchColumn picks the candidate that best names target. A case-insensitive exact
// match wins outright; otherwise the most similar candidate at or above MatchCutoff,
// the earliest one on ties. Returns Skip when nothing qualifies.
func MatchColumn(target string, candidates []string) string {
	t := norm(target)
	for _, c := range candidates {
		if norm(c) == t {
			return c
		}
	}
	best, bestScore := Skip, 0.0
	for _, c := range candidates {
		s := Similarity(t, norm(c))
		if s >= MatchCutoff && s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// Similarity is 1 - edit distance / longer length, in [0, 1].
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// SuggestMapping maps each target column to a source column (or Skip). Exact
// case-insensitive matches are assigned first for every target; the fuzzy pass then
// runs over the columns left. A source column is suggested for at most one target.
func SuggestMapping(targets, candidates []string) map[string]string {
	out := make(map[string]string, len(targets))
	used := map[string]bool{}
	for _, t := range targets {
		for _, c := range candidates {
			if !used[c] && norm(c) == norm(t) {
				out[t] = c
				used[c] = true
				break
			}
		}
	}
	for _, t := range targets {
		if _, ok := out[t]; ok {
			continue
		}
		var free []string
		for _, c := range candidates {
			if !used[c] {
				free = append(free, c)
			}
		}
		m := MatchColumn(t, free)
		out[t] = m
		if m != Skip {
			used[m] = true
		}
	}
	return out
}

// ApplyMapping builds a table with the mapped target columns, in targets order.
// Skipped targets are left out.
func ApplyMapping(t domain.Table, targets []string, mapping map[string]string) domain.Table {
	var headers []string
	var src []int
	for _, target := range targets {
		s, ok := mapping[target]
		if !ok || s == Skip {
			continue
		}
		i := t.Index(s)
		if i < 0 {
			continue
		}
		headers = append(headers, target)
		src = append(src, i)
	}
	out := domain.Table{Headers: headers}
	if len(headers) == 0 {
		return out
	}
	for _, r := range t.Rows {
		row := make([]string, len(src))
		for n, i := range src {
			row[n] = r[i]
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
