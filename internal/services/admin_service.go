package services

import (
	"context"
	"fmt"

	"quotedesk/internal/domain"
	"quotedesk/internal/repos"
)

type AdminService struct {
	Users    *repos.UserRepo
	Logs     *repos.LogRepo
	EOL      *repos.EOLRepo
	Activity *Activity
}

func (s *AdminService) AllUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.All(ctx)
}

func (s *AdminService) Pending(ctx context.Context) ([]domain.User, error) {
	return s.Users.Pending(ctx)
}

func (s *AdminService) Approve(ctx context.Context, admin, username string) error {
	if err := s.Users.SetStatus(ctx, username, domain.StatusActive); err != nil {
		return err
	}
	s.Activity.Record(ctx, admin, "Approve User", username)
	return nil
}

func (s *AdminService) SetRole(ctx context.Context, admin, username, role string) error {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return fmt.Errorf("%w: role must be %s or %s", ErrInvalidInput, domain.RoleUser, domain.RoleAdmin)
	}
	if admin == username && role != domain.RoleAdmin {
		return fmt.Errorf("%w: you cannot remove your own admin role", ErrInvalidInput)
	}
	if err := s.Users.SetRole(ctx, username, role); err != nil {
		return err
	}
	s.Activity.Record(ctx, admin, "Set Role", username+" -> "+role)
	return nil
}

func (s *AdminService) RecentLogs(ctx context.Context, n int) ([]domain.LogEntry, error) {
	return s.Logs.Latest(ctx, n)
}

func (s *AdminService) EOLArchive(ctx context.Context) (domain.Table, error) {
	return s.EOL.List(ctx)
}
