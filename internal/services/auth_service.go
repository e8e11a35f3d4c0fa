package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"quotedesk/internal/domain"
	applog "quotedesk/internal/log"
	"quotedesk/internal/mail"
	"quotedesk/internal/repos"
	"quotedesk/internal/validate"
)

var (
	ErrBadCreds     = errors.New("invalid username or password")
	ErrPending      = errors.New("account pending approval")
	ErrUserExists   = errors.New("username already taken")
	ErrWeakPassword = errors.New("password must be 8-64 characters with upper and lower case letters, a digit and a symbol")
	ErrInvalidInput = errors.New("invalid input")
)

type AuthService struct {
	Users      *repos.UserRepo
	Activity   *Activity
	Mail       mail.Sender
	AdminEmail string
}

type RegisterInput struct {
	Username string `validate:"required,min=3,max=32"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required"`
}

// Login checks credentials and the account status. Accounts still carrying a legacy
// SHA-256 hash are moved to bcrypt on their first successful login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Users.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	ok, legacy := CheckPassword(u.Hash, password)
	if !ok {
		return nil, ErrBadCreds
	}
	switch u.Status {
	case domain.StatusActive:
	case domain.StatusPending:
		return nil, ErrPending
	default:
		return nil, ErrBadCreds
	}
	if legacy {
		if h, err := HashPassword(password); err == nil {
			if err := s.Users.SetPasswordHash(ctx, u.Username, h); err != nil {
				applog.Logger().WithError(err).WithField("level", "error").Error("auth.rehash")
			}
		}
	}
	s.Activity.Record(ctx, u.Username, "Login", "")
	return u, nil
}

// Register creates a pending account and lets the administrator know.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if errs := validate.Struct(in); errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, errs)
	}
	if _, ok := validate.Username(in.Username); !ok {
		return fmt.Errorf("%w: username may use letters, digits, dot, dash and underscore", ErrInvalidInput)
	}
	if !validate.Password(in.Password) {
		return ErrWeakPassword
	}
	h, err := HashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.Users.Register(ctx, in.Username, h, in.Email); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return ErrUserExists
		}
		return err
	}
	s.Activity.Record(ctx, in.Username, "Register", in.Email)
	s.notifyAdmin(ctx, in.Username, in.Email)
	return nil
}

func (s *AuthService) notifyAdmin(ctx context.Context, username, email string) {
	if s.Mail == nil || !s.Mail.Enabled() || s.AdminEmail == "" {
		return
	}
	if err := s.Mail.Send(ctx, mail.SignupMessage(s.AdminEmail, username, email)); err != nil {
		applog.Logger().WithError(err).WithField("level", "error").Error("auth.register.notify")
	}
}

// CreateUser adds an account directly, skipping approval (admin tooling).
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput, role string) error {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return fmt.Errorf("%w: role must be %s or %s", ErrInvalidInput, domain.RoleUser, domain.RoleAdmin)
	}
	if errs := validate.Struct(in); errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, errs)
	}
	if !validate.Password(in.Password) {
		return ErrWeakPassword
	}
	h, err := HashPassword(in.Password)
	if err != nil {
		return err
	}
	err = s.Users.Create(ctx, domain.User{
		Username: in.Username,
		Hash:     h,
		Email:    in.Email,
		Status:   domain.StatusActive,
		Role:     role,
	})
	if errors.Is(err, repos.ErrDuplicate) {
		return ErrUserExists
	}
	return err
}

func HashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword verifies p against a bcrypt hash or a legacy unsalted SHA-256 hex
// digest. legacy reports a match against the latter.
func CheckPassword(hash, p string) (ok, legacy bool) {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil, false
	}
	if len(hash) != sha256.Size*2 {
		return false, false
	}
	sum := sha256.Sum256([]byte(p))
	want := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(want)) == 1 {
		return true, true
	}
	return false, false
}
