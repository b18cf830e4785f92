package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
	"github.com/foxfolio/portfolio-api/internal/service/credential"
)

// RejectionObserver is notified of every refused authentication. Used for
// metrics.
type RejectionObserver func(reason Rejection)

// Service authenticates principals. It is safe for concurrent use.
type Service struct {
	principals PrincipalRepository
	creds      CredentialStore
	lifetime   time.Duration
	now        func() time.Time
	observe    RejectionObserver
}

// NewService creates an authenticator. A non-positive lifetime falls back to
// domain.DefaultTokenLifetime.
func NewService(principals PrincipalRepository, creds CredentialStore, lifetime time.Duration) *Service {
	if lifetime <= 0 {
		lifetime = domain.DefaultTokenLifetime
	}
	return &Service{
		principals: principals,
		creds:      creds,
		lifetime:   lifetime,
		now:        time.Now,
		observe:    func(Rejection) {},
	}
}

// OnRejection registers fn to be called for every rejection.
func (s *Service) OnRejection(fn RejectionObserver) {
	if fn != nil {
		s.observe = fn
	}
}

// Lifetime returns the configured credential lifetime.
func (s *Service) Lifetime() time.Duration { return s.lifetime }

func (s *Service) reject(err *RejectedError) error {
	s.observe(err.Reason)
	return err
}

// Authenticate resolves a presented token to its principal.
//
// Unknown keys yield ErrInvalidToken. A credential older than the lifetime
// is deleted and yields ErrExpiredToken. An inactive principal yields
// ErrAccountDisabled and keeps its credential.
func (s *Service) Authenticate(ctx context.Context, key string) (domain.Principal, error) {
	cred, err := s.creds.Verify(ctx, key, s.now().UTC(), s.lifetime)
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return domain.Principal{}, s.reject(ErrInvalidToken)
	case errors.Is(err, credential.ErrExpired):
		return domain.Principal{}, s.reject(ErrExpiredToken)
	case err != nil:
		return domain.Principal{}, err
	}

	p, err := s.principals.GetByID(ctx, cred.PrincipalID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Principal{}, s.reject(ErrInvalidToken)
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}
	if !p.IsActive {
		return domain.Principal{}, s.reject(ErrAccountDisabled)
	}
	return *p, nil
}

// RequireStaff returns ErrNotStaff unless p may use administrator endpoints.
func RequireStaff(p domain.Principal) error {
	if !p.IsStaff {
		return ErrNotStaff
	}
	return nil
}

// Login checks a username and password and issues (or refreshes) the
// principal's credential.
func (s *Service) Login(ctx context.Context, username, password string) (domain.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.LoginResult{}, domain.Required("username")
	}
	if password == "" {
		return domain.LoginResult{}, domain.Required("password")
	}

	p, err := s.principals.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.LoginResult{}, s.reject(ErrBadCredentials)
	}
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("load principal: %w", err)
	}
	// Inactive accounts get the same answer as a wrong password so the
	// response does not confirm the password.
	if !checkPassword(p.PasswordHash, password) || !p.IsActive {
		return domain.LoginResult{}, s.reject(ErrBadCredentials)
	}

	cred, err := s.creds.Issue(ctx, p.ID)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if err := s.principals.TouchLastLogin(ctx, p.ID, cred.IssuedAt); err != nil {
		logger.Warn("failed to record last login", "principal_id", p.ID, "error", err)
	}

	logger.Info("principal logged in", "principal_id", p.ID, "username", p.Username)
	return domain.LoginResult{
		Token:       cred.Key,
		UserID:      p.ID,
		Email:       p.Email,
		IsStaff:     p.IsStaff,
		IsSuperuser: p.IsSuperuser,
	}, nil
}

// UserInfo returns the current stored profile of p.
func (s *Service) UserInfo(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	fresh, err := s.principals.GetByID(ctx, p.ID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}
	return *fresh, nil
}

// ChangePassword replaces p's password after checking current. On success
// the principal's credential is revoked so the next request must log in
// with the new password. A wrong current password changes nothing.
func (s *Service) ChangePassword(ctx context.Context, p domain.Principal, current, next string) error {
	if current == "" {
		return domain.Required("current_password")
	}
	if next == "" {
		return domain.Required("new_password")
	}

	fresh, err := s.principals.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("load principal: %w", err)
	}
	if !checkPassword(fresh.PasswordHash, current) {
		return s.reject(ErrWrongPassword)
	}

	hash, err := HashPassword(next)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ve.Field = "new_password"
		}
		return err
	}
	if err := s.principals.UpdatePasswordHash(ctx, p.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.creds.Revoke(ctx, p.ID); err != nil {
		logger.Warn("failed to revoke credential after password change", "principal_id", p.ID, "error", err)
	}
	logger.Info("password changed", "principal_id", p.ID)
	return nil
}

// CreatePrincipal registers a new administrator account.
func (s *Service) CreatePrincipal(ctx context.Context, username, email, password string, staff, superuser bool) (domain.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Principal{}, domain.Required("username")
	}
	if email != "" {
		if err := domain.ValidateEmail(email); err != nil {
			return domain.Principal{}, err
		}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return domain.Principal{}, err
	}
	p := domain.Principal{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      staff,
		IsSuperuser:  superuser,
		DateJoined:   s.now().UTC(),
	}
	if err := s.principals.Create(ctx, &p); err != nil {
		return domain.Principal{}, fmt.Errorf("create principal: %w", err)
	}
	return p, nil
}

// SetPassword replaces a principal's password without checking the old one.
// Operator use only.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	p, err := s.principals.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("load principal: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.principals.UpdatePasswordHash(ctx, p.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.creds.Revoke(ctx, p.ID)
}
