package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quotedesk/internal/domain"
	"quotedesk/internal/sheets"
)

type CategoryRepo struct{ s *Sheets }

func NewCategoryRepo(s *Sheets) *CategoryRepo { return &CategoryRepo{s: s} }

// List returns the registered categories, first registration wins on duplicates.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	t, err := r.s.Table(ctx, sheets.TabCategories)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []domain.Category
	for _, rec := range t.Records() {
		name := strings.TrimSpace(rec["category_name"])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, domain.Category{
			Name:      name,
			CreatedBy: rec["created_by"],
			CreatedAt: rec["created_at"],
		})
	}
	return out, nil
}

func (r *CategoryRepo) Names(ctx context.Context) ([]string, error) {
	cats, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out, nil
}

// Resolve returns the registered spelling of name, matched ignoring case and
// surrounding spaces. Tab reads and writes must use the resolved name.
func (r *CategoryRepo) Resolve(ctx context.Context, name string) (string, bool, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return "", false, err
	}
	name = strings.TrimSpace(name)
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, true, nil
		}
	}
	return "", false, nil
}

func (r *CategoryRepo) Exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := r.Resolve(ctx, name)
	return ok, err
}

// Add registers a category and creates its product tab.
func (r *CategoryRepo) Add(ctx context.Context, name, user string) error {
	name = strings.TrimSpace(name)
	if sheets.IsReserved(name) || strings.EqualFold(name, domain.CategoryColumn) {
		return fmt.Errorf("category %q: %w", name, ErrReserved)
	}
	ok, err := r.Exists(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("category %q: %w", name, ErrDuplicate)
	}
	if err := sheets.Ensure(ctx, r.s.WB, sheets.TabCategories, sheets.CategoriesHeader); err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, sheets.TabCategories, name)
	if err := r.s.WB.AppendRows(ctx, sheets.TabCategories, [][]string{
		{name, user, time.Now().UTC().Format(time.RFC3339)},
	}); err != nil {
		return err
	}
	if err := r.s.WB.AddWorksheet(ctx, name); err != nil && !errors.Is(err, sheets.ErrWorksheetExists) {
		return err
	}
	return nil
}
