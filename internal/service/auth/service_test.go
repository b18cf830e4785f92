package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/service/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPrincipals struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Principal
}

func newMemPrincipals() *memPrincipals {
	return &memPrincipals{byID: make(map[int64]*domain.Principal)}
}

func (m *memPrincipals) GetByID(_ context.Context, id int64) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("principal %d: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memPrincipals) GetByUsername(_ context.Context, username string) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPrincipals) Create(_ context.Context, p *domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == p.Username {
			return domain.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPrincipals) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].PasswordHash = hash
	return nil
}

func (m *memPrincipals) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].LastLogin = &at
	return nil
}

func (m *memPrincipals) setActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].IsActive = active
}

type memCreds struct {
	mu   sync.Mutex
	rows map[int64]*domain.Credential
}

func (m *memCreds) Upsert(_ context.Context, principalID int64, key string, at time.Time) (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[principalID]; ok {
		c.IssuedAt = at
		return *c, nil
	}
	c := &domain.Credential{Key: key, PrincipalID: principalID, IssuedAt: at}
	m.rows[principalID] = c
	return *c, nil
}

func (m *memCreds) GetByKey(_ context.Context, key string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Key == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCreds) GetByPrincipal(_ context.Context, id int64) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCreds) DeleteExpired(_ context.Context, key string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.rows {
		if c.Key == key && c.IssuedAt.Equal(issuedAt) {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memCreds) DeleteByPrincipal(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

const testLifetime = 14 * 24 * time.Hour

type fixture struct {
	svc        *Service
	principals *memPrincipals
	creds      *memCreds
	admin      domain.Principal
	editor     domain.Principal
	rejections []Rejection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		principals: newMemPrincipals(),
		creds:      &memCreds{rows: make(map[int64]*domain.Credential)},
	}
	f.svc = NewService(f.principals, credential.NewStore(f.creds), testLifetime)
	f.svc.OnRejection(func(r Rejection) { f.rejections = append(f.rejections, r) })

	var err error
	f.admin, err = f.svc.CreatePrincipal(context.Background(), "fox", "fox@example.com", "correct-horse", true, true)
	require.NoError(t, err)
	f.editor, err = f.svc.CreatePrincipal(context.Background(), "editor", "", "editor-pass", false, false)
	require.NoError(t, err)
	return f
}

func TestLogin_IssuesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "fox", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, f.admin.ID, res.UserID)
	assert.Equal(t, "fox@example.com", res.Email)
	assert.True(t, res.IsStaff)
	assert.True(t, res.IsSuperuser)

	stored, _ := f.principals.GetByID(ctx, f.admin.ID)
	assert.NotNil(t, stored.LastLogin)

	again, err := f.svc.Login(ctx, "fox", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, res.Token, again.Token, "re-login refreshes the same credential")
	assert.Len(t, f.creds.rows, 1)
}

func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "fox", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Login(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = f.svc.Login(ctx, "", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, []Rejection{ReasonBadCredentials, ReasonBadCredentials}, f.rejections)
}

func TestLogin_InactiveAccountLooksLikeBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.principals.setActive(f.admin.ID, false)

	_, right := f.svc.Login(ctx, "fox", "correct-horse")
	_, wrong := f.svc.Login(ctx, "fox", "wrong-horse")

	assert.ErrorIs(t, right, ErrBadCredentials)
	assert.NotErrorIs(t, right, ErrAccountDisabled)
	assert.Equal(t, wrong.Error(), right.Error())
	assert.Empty(t, f.creds.rows, "no credential is issued for an inactive account")
	assert.Equal(t, []Rejection{ReasonBadCredentials, ReasonBadCredentials}, f.rejections)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token yields principal", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Login(ctx, "fox", "correct-horse")
		require.NoError(t, err)

		p, err := f.svc.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, f.admin.ID, p.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Authenticate(ctx, "deadbeef")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired token is deleted", func(t *testing.T) {
		f := newFixture(t)
		res, _ := f.svc.Login(ctx, "fox", "correct-horse")

		f.svc.now = func() time.Time { return time.Now().Add(testLifetime + time.Minute) }
		_, err := f.svc.Authenticate(ctx, res.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.Empty(t, f.creds.rows)

		_, err = f.svc.Authenticate(ctx, res.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("inactive principal keeps credential", func(t *testing.T) {
		f := newFixture(t)
		res, _ := f.svc.Login(ctx, "fox", "correct-horse")
		f.principals.setActive(f.admin.ID, false)

		_, err := f.svc.Authenticate(ctx, res.Token)
		assert.ErrorIs(t, err, ErrAccountDisabled)
		assert.Len(t, f.creds.rows, 1)

		f.principals.setActive(f.admin.ID, true)
		_, err = f.svc.Authenticate(ctx, res.Token)
		assert.NoError(t, err)
	})
}

func TestRequireStaff(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, RequireStaff(f.admin))

	err := RequireStaff(f.editor)
	assert.ErrorIs(t, err, ErrNotStaff)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password changes nothing", func(t *testing.T) {
		f := newFixture(t)
		res, _ := f.svc.Login(ctx, "fox", "correct-horse")

		err := f.svc.ChangePassword(ctx, f.admin, "nope", "brand-new-pass")
		assert.ErrorIs(t, err, ErrWrongPassword)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		_, err = f.svc.Authenticate(ctx, res.Token)
		assert.NoError(t, err, "credential still usable")
		_, err = f.svc.Login(ctx, "fox", "correct-horse")
		assert.NoError(t, err, "old password still works")
	})

	t.Run("success rotates password and revokes credential", func(t *testing.T) {
		f := newFixture(t)
		res, _ := f.svc.Login(ctx, "fox", "correct-horse")

		require.NoError(t, f.svc.ChangePassword(ctx, f.admin, "correct-horse", "brand-new-pass"))

		_, err := f.svc.Authenticate(ctx, res.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = f.svc.Login(ctx, "fox", "correct-horse")
		assert.ErrorIs(t, err, ErrBadCredentials)
		_, err = f.svc.Login(ctx, "fox", "brand-new-pass")
		assert.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.ChangePassword(ctx, f.admin, "", "brand-new-pass")
		assert.ErrorIs(t, err, domain.ErrValidation)

		err = f.svc.ChangePassword(ctx, f.admin, "correct-horse", "short")
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "new_password", ve.Field)
	})
}

func TestUserInfo(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.UserInfo(context.Background(), domain.Principal{ID: f.admin.ID})
	require.NoError(t, err)
	assert.Equal(t, "fox", p.Username)
	assert.True(t, p.IsActive)
}

func TestNewService_DefaultLifetime(t *testing.T) {
	svc := NewService(newMemPrincipals(), nil, 0)
	assert.Equal(t, domain.DefaultTokenLifetime, svc.Lifetime())
}
