package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// CredentialRepo implements credential.Repository against PostgreSQL. The
// unique constraint on principal_id enforces one credential per principal.
type CredentialRepo struct{ db *sql.DB }

// NewCredentialRepo creates a Postgres-backed credential repository.
func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{db: db} }

func (r *CredentialRepo) Upsert(ctx context.Context, principalID int64, candidateKey string, issuedAt time.Time) (domain.Credential, error) {
	c := domain.Credential{PrincipalID: principalID}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO credentials (key, principal_id, issued_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal_id) DO UPDATE SET issued_at = EXCLUDED.issued_at
		RETURNING key, issued_at
	`, candidateKey, principalID, issuedAt).Scan(&c.Key, &c.IssuedAt)
	if err != nil {
		return domain.Credential{}, mapErr("upsert credential", err)
	}
	return c, nil
}

func (r *CredentialRepo) GetByKey(ctx context.Context, key string) (*domain.Credential, error) {
	return r.get(ctx, `SELECT key, principal_id, issued_at FROM credentials WHERE key = $1`, key)
}

func (r *CredentialRepo) GetByPrincipal(ctx context.Context, principalID int64) (*domain.Credential, error) {
	return r.get(ctx, `SELECT key, principal_id, issued_at FROM credentials WHERE principal_id = $1`, principalID)
}

func (r *CredentialRepo) get(ctx context.Context, q string, arg any) (*domain.Credential, error) {
	c := &domain.Credential{}
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&c.Key, &c.PrincipalID, &c.IssuedAt); err != nil {
		return nil, mapErr("get credential", err)
	}
	return c, nil
}

func (r *CredentialRepo) DeleteExpired(ctx context.Context, key string, issuedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE key = $1 AND issued_at = $2`, key, issuedAt)
	return mapErr("delete credential", err)
}

func (r *CredentialRepo) DeleteByPrincipal(ctx context.Context, principalID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE principal_id = $1`, principalID)
	return mapErr("delete credential", err)
}
