package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"quotedesk/internal/domain"
)

var ErrKeyColumnMissing = errors.New("key column missing")

// Diff compares two snapshots of a category on a key column.
type Diff struct {
	Key       string
	NewKeys   []string
	EOLKeys   []string
	Unchanged []string

	// EOLRows are the existing rows whose key left the snapshot, in existing order.
	EOLRows [][]string
}

// Compare diffs existing against incoming. Keys are compared after trimming spaces.
// An empty existing table makes every incoming key new.
func Compare(existing, incoming domain.Table, key string) (Diff, error) {
	d := Diff{Key: key}
	if !incoming.Has(key) {
		return d, fmt.Errorf("%w: %q not in upload", ErrKeyColumnMissing, key)
	}
	if !existing.Empty() && existing.Len() > 0 && !existing.Has(key) {
		return d, fmt.Errorf("%w: %q not in current sheet", ErrKeyColumnMissing, key)
	}

	newSet := keySet(incoming.Column(key))
	oldSet := keySet(existing.Column(key))

	for k := range newSet {
		if oldSet[k] {
			d.Unchanged = append(d.Unchanged, k)
		} else {
			d.NewKeys = append(d.NewKeys, k)
		}
	}
	for k := range oldSet {
		if !newSet[k] {
			d.EOLKeys = append(d.EOLKeys, k)
		}
	}
	sort.Strings(d.NewKeys)
	sort.Strings(d.EOLKeys)
	sort.Strings(d.Unchanged)

	if len(d.EOLKeys) > 0 {
		i := existing.Index(key)
		for _, r := range existing.Rows {
			if k := strings.TrimSpace(r[i]); k != "" && !newSet[k] {
				d.EOLRows = append(d.EOLRows, r)
			}
		}
	}
	return d, nil
}

func keySet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out[v] = true
		}
	}
	return out
}
