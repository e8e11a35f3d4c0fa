package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quotedesk/internal/domain"
	"quotedesk/internal/sheets"
)

type ProductRepo struct {
	s    *Sheets
	cats *CategoryRepo
}

func NewProductRepo(s *Sheets, cats *CategoryRepo) *ProductRepo {
	return &ProductRepo{s: s, cats: cats}
}

// All concatenates every category tab into one table tagged with a category column.
// Columns empty in every row are dropped; tabs that do not exist are skipped.
func (r *ProductRepo) All(ctx context.Context) (domain.Table, error) {
	names, err := r.cats.Names(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	var parts []domain.Table
	var headers []string
	for _, name := range names {
		t, err := r.s.Table(ctx, name)
		if err != nil {
			return domain.Table{}, fmt.Errorf("load %s: %w", name, err)
		}
		if t.Len() == 0 {
			continue
		}
		headers = domain.UnionHeaders(headers, t.Headers)
		parts = append(parts, tagCategory(t, name))
	}
	if len(parts) == 0 {
		return domain.Table{}, nil
	}
	headers = domain.UnionHeaders(withoutCol(headers, domain.CategoryColumn), []string{domain.CategoryColumn})

	all := domain.Table{Headers: headers}
	for _, p := range parts {
		all.Rows = append(all.Rows, p.Align(headers)...)
	}
	return dropEmptyColumns(all), nil
}

// Search keeps the rows where any value contains q, case-insensitively.
func (r *ProductRepo) Search(ctx context.Context, q string) (domain.Table, error) {
	all, err := r.All(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all, nil
	}
	return all.Select(func(row []string) bool {
		for _, v := range row {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}), nil
}

// Category returns one category tab; name is matched ignoring case.
func (r *ProductRepo) Category(ctx context.Context, name string) (domain.Table, error) {
	canon, ok, err := r.cats.Resolve(ctx, name)
	if err != nil {
		return domain.Table{}, err
	}
	if !ok {
		return domain.Table{}, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	return r.s.Table(ctx, canon)
}

// Append adds rows to a category. An empty tab gets t's header; otherwise rows are
// aligned to the existing header and new columns are added to the right of it.
func (r *ProductRepo) Append(ctx context.Context, category string, t domain.Table) error {
	if t.Len() == 0 {
		return nil
	}
	category, err := r.ensureTab(ctx, category)
	if err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, category)

	grid, err := r.s.fresh(ctx, category)
	if err != nil {
		return err
	}
	existing := domain.TableFromGrid(grid)
	if existing.Empty() {
		return r.s.WB.Replace(ctx, category, t.Grid())
	}
	header := domain.UnionHeaders(existing.Headers, t.Headers)
	if len(header) > len(existing.Headers) {
		widened := domain.Table{Headers: header, Rows: append(existing.Align(header), t.Align(header)...)}
		return r.s.WB.Replace(ctx, category, widened.Grid())
	}
	return r.s.WB.AppendRows(ctx, category, t.Align(header))
}

// Replace overwrites a category tab with t.
func (r *ProductRepo) Replace(ctx context.Context, category string, t domain.Table) error {
	category, err := r.ensureTab(ctx, category)
	if err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, category)
	return r.s.WB.Replace(ctx, category, t.Grid())
}

// ensureTab resolves a registered category and makes sure its tab exists.
func (r *ProductRepo) ensureTab(ctx context.Context, category string) (string, error) {
	canon, ok, err := r.cats.Resolve(ctx, category)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	err = r.s.WB.AddWorksheet(ctx, canon)
	if err != nil && !errors.Is(err, sheets.ErrWorksheetExists) {
		return "", err
	}
	return canon, nil
}

func tagCategory(t domain.Table, name string) domain.Table {
	headers := append(withoutCol(t.Headers, domain.CategoryColumn), domain.CategoryColumn)
	out := domain.Table{Headers: headers}
	for _, row := range t.Align(headers) {
		row[len(row)-1] = name
		out.Rows = append(out.Rows, row)
	}
	return out
}

func withoutCol(headers []string, col string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != col && h != "" {
			out = append(out, h)
		}
	}
	return out
}

func dropEmptyColumns(t domain.Table) domain.Table {
	var keep []string
	for i, h := range t.Headers {
		for _, r := range t.Rows {
			if strings.TrimSpace(r[i]) != "" {
				keep = append(keep, h)
				break
			}
		}
	}
	return domain.Table{Headers: keep, Rows: t.Align(keep)}
}
