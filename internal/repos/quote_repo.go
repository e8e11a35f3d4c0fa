package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"quotedesk/internal/domain"
	applog "quotedesk/internal/log"
	"quotedesk/internal/sheets"
)

// QuoteRepo stores one quote per row of the quotes tab, line items as a JSON blob.
type QuoteRepo struct{ s *Sheets }

func NewQuoteRepo(s *Sheets) *QuoteRepo { return &QuoteRepo{s: s} }

func (r *QuoteRepo) Save(ctx context.Context, q domain.Quote) error {
	row, err := quoteRow(q)
	if err != nil {
		return err
	}
	if err := sheets.Ensure(ctx, r.s.WB, sheets.TabQuotes, sheets.QuotesHeader); err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, sheets.TabQuotes)
	return r.s.WB.AppendRows(ctx, sheets.TabQuotes, [][]string{row})
}

func (r *QuoteRepo) Get(ctx context.Context, id string) (*domain.Quote, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("quote %s: %w", id, ErrNotFound)
}

// List returns quotes newest first; createdBy "" lists everyone's.
func (r *QuoteRepo) List(ctx context.Context, createdBy string) ([]domain.Quote, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, q := range all {
		if createdBy == "" || q.CreatedBy == createdBy {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (r *QuoteRepo) UpdateStatus(ctx context.Context, id, status string) error {
	grid, err := r.s.fresh(ctx, sheets.TabQuotes)
	if err != nil {
		return err
	}
	i := findRow(grid, "quote_id", id)
	if i < 0 {
		return fmt.Errorf("quote %s: %w", id, ErrNotFound)
	}
	defer r.s.Invalidate(ctx, sheets.TabQuotes)
	return r.s.WB.UpdateRow(ctx, sheets.TabQuotes, i, setCell(grid[0], grid[i], "status", status))
}

func (r *QuoteRepo) all(ctx context.Context) ([]domain.Quote, error) {
	t, err := r.s.Table(ctx, sheets.TabQuotes)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quote, 0, t.Len())
	for _, rec := range t.Records() {
		q, err := parseQuote(rec)
		if err != nil {
			applog.Logger().WithError(err).WithFields(map[string]any{
				"level":    "error",
				"quote_id": rec["quote_id"],
			}).Error("quotes.row.skip")
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func quoteRow(q domain.Quote) ([]string, error) {
	items := q.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return []string{
		q.ID, q.CreatedAt, q.CreatedBy, q.ClientName, q.ClientEmail, q.ClientPhone,
		q.Status, strconv.FormatFloat(q.TotalAmount, 'f', 2, 64), string(b),
		q.ExpirationDate, q.SellerInfo,
	}, nil
}

func parseQuote(rec map[string]string) (domain.Quote, error) {
	q := domain.Quote{
		ID:             rec["quote_id"],
		CreatedAt:      rec["created_at"],
		CreatedBy:      rec["created_by"],
		ClientName:     rec["client_name"],
		ClientEmail:    rec["client_email"],
		ClientPhone:    rec["client_phone"],
		Status:         rec["status"],
		ExpirationDate: rec["expiration_date"],
		SellerInfo:     rec["seller_info"],
	}
	if v := rec["total_amount"]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, fmt.Errorf("quote %s total_amount: %w", q.ID, err)
		}
		q.TotalAmount = f
	}
	if v := rec["items_json"]; v != "" {
		if err := json.Unmarshal([]byte(v), &q.Items); err != nil {
			return q, fmt.Errorf("quote %s items_json: %w", q.ID, err)
		}
	}
	return q, nil
}
