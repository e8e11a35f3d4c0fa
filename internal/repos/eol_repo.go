package repos

import (
	"context"
	"time"

	"quotedesk/internal/domain"
	"quotedesk/internal/sheets"
)

// EOLRepo archives rows that dropped out of a category snapshot.
type EOLRepo struct{ s *Sheets }

func NewEOLRepo(s *Sheets) *EOLRepo { return &EOLRepo{s: s} }

// Archive appends rows (shaped by header) stamped with the EOL date and their category.
// The archive header is widened when the rows bring columns it has not seen.
func (r *EOLRepo) Archive(ctx context.Context, category string, header []string, rows [][]string, at time.Time) error {
	if len(rows) == 0 {
		return nil
	}
	if err := sheets.Ensure(ctx, r.s.WB, sheets.TabEOL, nil); err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, sheets.TabEOL)

	grid, err := r.s.fresh(ctx, sheets.TabEOL)
	if err != nil {
		return err
	}
	existing := domain.TableFromGrid(grid)
	incomingHeader := append(append([]string(nil), header...), sheets.EOLDateColumn, sheets.EOLCategoryColumn)
	incoming := domain.Table{Headers: incomingHeader}
	stamp := at.UTC().Format(time.RFC3339)
	for _, row := range rows {
		incoming.Rows = append(incoming.Rows, append(fitRow(row, len(header)), stamp, category))
	}

	if existing.Empty() {
		return r.s.WB.Replace(ctx, sheets.TabEOL, incoming.Grid())
	}
	full := domain.UnionHeaders(existing.Headers, incomingHeader)
	if len(full) > len(existing.Headers) {
		widened := domain.Table{Headers: full, Rows: append(existing.Align(full), incoming.Align(full)...)}
		return r.s.WB.Replace(ctx, sheets.TabEOL, widened.Grid())
	}
	return r.s.WB.AppendRows(ctx, sheets.TabEOL, incoming.Align(full))
}

func (r *EOLRepo) List(ctx context.Context) (domain.Table, error) {
	return r.s.Table(ctx, sheets.TabEOL)
}

func fitRow(r []string, n int) []string {
	out := make([]string, n)
	copy(out, r)
	return out
}
