package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
)

// keyBytes is the entropy of a credential key; keys are hex encoded.
const keyBytes = 20

// Store issues, verifies and revokes credentials.
type Store struct {
	repo   Repository
	now    func() time.Time
	newKey func() (string, error)
}

// NewStore creates a credential store backed by repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now, newKey: generateKey}
}

func generateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue returns the principal's credential with its clock reset to now,
// creating one if the principal has none. Re-issuing keeps the key.
func (s *Store) Issue(ctx context.Context, principalID int64) (domain.Credential, error) {
	key, err := s.newKey()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("generate credential key: %w", err)
	}
	cred, err := s.repo.Upsert(ctx, principalID, key, s.now().UTC())
	if err != nil {
		return domain.Credential{}, fmt.Errorf("issue credential: %w", err)
	}
	return cred, nil
}

// Verify returns the credential for key if it is still within lifetime at
// now. An expired credential is deleted before ErrExpired is returned, so a
// second Verify with the same key reports ErrNotFound.
func (s *Store) Verify(ctx context.Context, key string, now time.Time, lifetime time.Duration) (domain.Credential, error) {
	if key == "" {
		return domain.Credential{}, ErrNotFound
	}
	cred, err := s.repo.GetByKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Credential{}, ErrNotFound
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("verify credential: %w", err)
	}

	if cred.Expired(now, lifetime) {
		if derr := s.repo.DeleteExpired(ctx, key, cred.IssuedAt); derr != nil {
			logger.Warn("failed to delete expired credential",
				"principal_id", cred.PrincipalID, "error", derr)
		}
		return domain.Credential{}, ErrExpired
	}
	return *cred, nil
}

// Revoke deletes the principal's credential. Revoking a principal with no
// credential is a no-op.
func (s *Store) Revoke(ctx context.Context, principalID int64) error {
	if err := s.repo.DeleteByPrincipal(ctx, principalID); err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	return nil
}

// Lookup returns the principal's current credential without checking expiry.
func (s *Store) Lookup(ctx context.Context, principalID int64) (domain.Credential, error) {
	cred, err := s.repo.GetByPrincipal(ctx, principalID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Credential{}, ErrNotFound
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("lookup credential: %w", err)
	}
	return *cred, nil
}
