package repos

import (
	"context"
	"time"

	"quotedesk/internal/domain"
	"quotedesk/internal/sheets"
)

// LogRepo is the business activity trail kept in the logs tab.
type LogRepo struct{ s *Sheets }

func NewLogRepo(s *Sheets) *LogRepo { return &LogRepo{s: s} }

// Append records one action. Callers treat failures as non-fatal.
func (r *LogRepo) Append(ctx context.Context, user, action, details string) error {
	if err := sheets.Ensure(ctx, r.s.WB, sheets.TabLogs, sheets.LogsHeader); err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, sheets.TabLogs)
	return r.s.WB.AppendRows(ctx, sheets.TabLogs, [][]string{
		{time.Now().UTC().Format(time.RFC3339), user, action, details},
	})
}

// Latest returns up to n entries, newest first.
func (r *LogRepo) Latest(ctx context.Context, n int) ([]domain.LogEntry, error) {
	t, err := r.s.Table(ctx, sheets.TabLogs)
	if err != nil {
		return nil, err
	}
	recs := t.Records()
	out := make([]domain.LogEntry, 0, n)
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, domain.LogEntry{
			Timestamp: recs[i]["timestamp"],
			User:      recs[i]["user"],
			Action:    recs[i]["action"],
			Details:   recs[i]["details"],
		})
	}
	return out, nil
}
