package credential

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu          sync.Mutex
	byPrincipal map[int64]*domain.Credential
}

func newMemRepo() *memRepo {
	return &memRepo{byPrincipal: make(map[int64]*domain.Credential)}
}

func (m *memRepo) Upsert(_ context.Context, principalID int64, candidateKey string, issuedAt time.Time) (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byPrincipal[principalID]; ok {
		c.IssuedAt = issuedAt
		return *c, nil
	}
	c := &domain.Credential{Key: candidateKey, PrincipalID: principalID, IssuedAt: issuedAt}
	m.byPrincipal[principalID] = c
	return *c, nil
}

func (m *memRepo) GetByKey(_ context.Context, key string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byPrincipal {
		if c.Key == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("credential by key: %w", domain.ErrNotFound)
}

func (m *memRepo) GetByPrincipal(_ context.Context, principalID int64) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byPrincipal[principalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) DeleteExpired(_ context.Context, key string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.byPrincipal {
		if c.Key == key && c.IssuedAt.Equal(issuedAt) {
			delete(m.byPrincipal, id)
		}
	}
	return nil
}

func (m *memRepo) DeleteByPrincipal(_ context.Context, principalID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byPrincipal, principalID)
	return nil
}

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *memRepo, *clock) {
	repo := newMemRepo()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(repo)
	s.now = clk.Now
	return s, repo, clk
}

func TestIssue_RefreshKeepsKeyAndAdvancesClock(t *testing.T) {
	s, _, clk := newTestStore()
	ctx := context.Background()

	first, err := s.Issue(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, first.Key, keyBytes*2)

	clk.Advance(time.Hour)
	second, err := s.Issue(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	assert.True(t, second.IssuedAt.After(first.IssuedAt))
}

func TestIssue_DistinctPrincipalsGetDistinctKeys(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	a, err := s.Issue(ctx, 1)
	require.NoError(t, err)
	b, err := s.Issue(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestVerify(t *testing.T) {
	lifetime := 14 * 24 * time.Hour

	t.Run("unknown key", func(t *testing.T) {
		s, _, clk := newTestStore()
		_, err := s.Verify(context.Background(), "nope", clk.Now(), lifetime)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		s, _, clk := newTestStore()
		_, err := s.Verify(context.Background(), "", clk.Now(), lifetime)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("within lifetime", func(t *testing.T) {
		s, _, clk := newTestStore()
		ctx := context.Background()
		cred, err := s.Issue(ctx, 1)
		require.NoError(t, err)

		got, err := s.Verify(ctx, cred.Key, clk.Now().Add(lifetime-time.Second), lifetime)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.PrincipalID)
	})

	t.Run("exactly at lifetime is valid", func(t *testing.T) {
		s, _, clk := newTestStore()
		ctx := context.Background()
		cred, _ := s.Issue(ctx, 1)

		_, err := s.Verify(ctx, cred.Key, clk.Now().Add(lifetime), lifetime)
		assert.NoError(t, err)
	})

	t.Run("expired is deleted", func(t *testing.T) {
		s, repo, clk := newTestStore()
		ctx := context.Background()
		cred, _ := s.Issue(ctx, 1)

		later := clk.Now().Add(lifetime + time.Second)
		_, err := s.Verify(ctx, cred.Key, later, lifetime)
		assert.ErrorIs(t, err, ErrExpired)

		_, err = s.Verify(ctx, cred.Key, later, lifetime)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, repo.byPrincipal)
	})

	t.Run("refresh extends validity", func(t *testing.T) {
		s, _, clk := newTestStore()
		ctx := context.Background()
		cred, _ := s.Issue(ctx, 1)

		clk.Advance(lifetime - time.Minute)
		_, err := s.Issue(ctx, 1)
		require.NoError(t, err)

		_, err = s.Verify(ctx, cred.Key, clk.Now().Add(time.Hour), lifetime)
		assert.NoError(t, err)
	})
}

// reissuingRepo refreshes the credential right after it has been read, the
// way a login racing a stale Verify would.
type reissuingRepo struct {
	*memRepo
	reissue func()
}

func (r *reissuingRepo) GetByKey(ctx context.Context, key string) (*domain.Credential, error) {
	c, err := r.memRepo.GetByKey(ctx, key)
	if r.reissue != nil {
		fn := r.reissue
		r.reissue = nil
		fn()
	}
	return c, err
}

func TestVerify_ExpiredCleanupSparesConcurrentRefresh(t *testing.T) {
	lifetime := time.Hour
	s, repo, clk := newTestStore()
	ctx := context.Background()
	stale, err := s.Issue(ctx, 1)
	require.NoError(t, err)

	clk.Advance(2 * lifetime)
	var refreshed domain.Credential
	racing := &reissuingRepo{memRepo: repo}
	racing.reissue = func() {
		refreshed, err = s.Issue(ctx, 1)
		require.NoError(t, err)
	}
	s.repo = racing

	_, err = s.Verify(ctx, stale.Key, clk.Now(), lifetime)
	assert.ErrorIs(t, err, ErrExpired)
	require.Equal(t, stale.Key, refreshed.Key)

	got, err := s.Verify(ctx, refreshed.Key, clk.Now(), lifetime)
	require.NoError(t, err, "refreshed credential must survive the stale cleanup")
	assert.Equal(t, refreshed.IssuedAt, got.IssuedAt)
}

func TestRevoke(t *testing.T) {
	s, _, clk := newTestStore()
	ctx := context.Background()
	cred, _ := s.Issue(ctx, 3)

	require.NoError(t, s.Revoke(ctx, 3))
	_, err := s.Verify(ctx, cred.Key, clk.Now(), time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Revoke(ctx, 3), "revoking twice is a no-op")

	_, err = s.Lookup(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}
