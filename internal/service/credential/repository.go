package credential

import (
	"context"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Repository defines the data access contract for credentials.
type Repository interface {
	// Upsert stores a credential for principalID. When the principal already
	// holds one, only its issued-at time is replaced and the existing key is
	// kept; candidateKey is used only for a fresh row. Returns the stored
	// credential.
	Upsert(ctx context.Context, principalID int64, candidateKey string, issuedAt time.Time) (domain.Credential, error)

	// GetByKey returns the credential with this key, or an error wrapping
	// domain.ErrNotFound.
	GetByKey(ctx context.Context, key string) (*domain.Credential, error)

	// GetByPrincipal returns the principal's credential, or an error wrapping
	// domain.ErrNotFound.
	GetByPrincipal(ctx context.Context, principalID int64) (*domain.Credential, error)

	// DeleteExpired removes the credential with this key only while it still
	// carries issuedAt, so a row refreshed by a concurrent Upsert survives.
	// Deleting a missing or refreshed credential is not an error.
	DeleteExpired(ctx context.Context, key string, issuedAt time.Time) error

	// DeleteByPrincipal removes the principal's credential, if any.
	DeleteByPrincipal(ctx context.Context, principalID int64) error
}
