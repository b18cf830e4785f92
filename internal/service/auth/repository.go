package auth

import (
	"context"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// PrincipalRepository defines the data access contract for administrator
// accounts.
type PrincipalRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Principal, error)
	GetByUsername(ctx context.Context, username string) (*domain.Principal, error)
	Create(ctx context.Context, p *domain.Principal) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// CredentialStore is the subset of credential.Store the authenticator uses.
type CredentialStore interface {
	Issue(ctx context.Context, principalID int64) (domain.Credential, error)
	Verify(ctx context.Context, key string, now time.Time, lifetime time.Duration) (domain.Credential, error)
	Revoke(ctx context.Context, principalID int64) error
}
