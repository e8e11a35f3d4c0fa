package repos

import (
	"context"
	"fmt"
	"strings"

	"quotedesk/internal/domain"
	"quotedesk/internal/sheets"
)

type UserRepo struct{ s *Sheets }

func NewUserRepo(s *Sheets) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) All(ctx context.Context) ([]domain.User, error) {
	t, err := r.s.Table(ctx, sheets.TabUsers)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, t.Len())
	for _, rec := range t.Records() {
		out = append(out, domain.User{
			Username: strings.TrimSpace(rec["username"]),
			Hash:     rec["password"],
			Email:    rec["email"],
			Status:   strings.TrimSpace(rec["status"]),
			Role:     strings.TrimSpace(rec["role"]),
		})
	}
	return out, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Username, username) {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// Pending lists accounts waiting for approval.
func (r *UserRepo) Pending(ctx context.Context) ([]domain.User, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.User
	for _, u := range all {
		if u.Status == domain.StatusPending {
			out = append(out, u)
		}
	}
	return out, nil
}

// Register appends a pending, non-admin account. The users tab is created on first use.
func (r *UserRepo) Register(ctx context.Context, username, hash, email string) error {
	if _, err := r.ByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q: %w", username, ErrDuplicate)
	}
	if err := sheets.Ensure(ctx, r.s.WB, sheets.TabUsers, sheets.UsersHeader); err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, sheets.TabUsers)
	return r.s.WB.AppendRows(ctx, sheets.TabUsers, [][]string{
		{username, hash, email, domain.StatusPending, domain.RoleUser},
	})
}

// Create appends an account with an explicit status and role (admin tooling).
func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	if _, err := r.ByUsername(ctx, u.Username); err == nil {
		return fmt.Errorf("user %q: %w", u.Username, ErrDuplicate)
	}
	if err := sheets.Ensure(ctx, r.s.WB, sheets.TabUsers, sheets.UsersHeader); err != nil {
		return err
	}
	defer r.s.Invalidate(ctx, sheets.TabUsers)
	return r.s.WB.AppendRows(ctx, sheets.TabUsers, [][]string{
		{u.Username, u.Hash, u.Email, u.Status, u.Role},
	})
}

func (r *UserRepo) SetStatus(ctx context.Context, username, status string) error {
	return r.setField(ctx, username, "status", status)
}

func (r *UserRepo) SetRole(ctx context.Context, username, role string) error {
	return r.setField(ctx, username, "role", role)
}

func (r *UserRepo) SetPasswordHash(ctx context.Context, username, hash string) error {
	return r.setField(ctx, username, "password", hash)
}

func (r *UserRepo) setField(ctx context.Context, username, col, val string) error {
	grid, err := r.s.fresh(ctx, sheets.TabUsers)
	if err != nil {
		return err
	}
	i := findRow(grid, "username", username)
	if i < 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	defer r.s.Invalidate(ctx, sheets.TabUsers)
	return r.s.WB.UpdateRow(ctx, sheets.TabUsers, i, setCell(grid[0], grid[i], col, val))
}
