package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr("op", nil))
	assert.ErrorIs(t, mapErr("op", sql.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, mapErr("op", &pq.Error{Code: "23505"}), domain.ErrDuplicate)

	other := errors.New("connection reset")
	err := mapErr("op", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestVisitorRepo_Create(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepo(db)

	mock.ExpectQuery("INSERT INTO visitors").
		WithArgs("a@x.com", "Ada", t0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	v := &domain.Visitor{Email: "a@x.com", Name: "Ada", RegisteredAt: t0}
	require.NoError(t, repo.Create(context.Background(), v))
	assert.Equal(t, int64(42), v.ID)
}

func TestVisitorRepo_CreateDuplicate(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepo(db)

	mock.ExpectQuery("INSERT INTO visitors").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "visitors_email_key"})

	err := repo.Create(context.Background(), &domain.Visitor{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestVisitorRepo_GetByEmailNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepo(db)

	mock.ExpectQuery("FROM visitors").
		WithArgs("missing@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVisitorRepo_Page(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepo(db)

	mock.ExpectQuery("WHERE id > \\$1").
		WithArgs(int64(10), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "registered_at"}).
			AddRow(11, "b@x.com", "", t0).
			AddRow(12, "c@x.com", "Cy", t0))

	page, err := repo.Page(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(12), page[1].ID)
	assert.Equal(t, "Cy", page[1].Name)
}

func TestVisitorRepo_UpdateNameMissing(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepo(db)

	mock.ExpectExec("UPDATE visitors SET name").
		WithArgs("Bo", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateName(context.Background(), 9, "Bo"), domain.ErrNotFound)
}

func TestCredentialRepo_UpsertKeepsExistingKey(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCredentialRepo(db)

	mock.ExpectQuery("ON CONFLICT \\(principal_id\\) DO UPDATE SET issued_at").
		WithArgs("fresh", int64(1), t0).
		WillReturnRows(sqlmock.NewRows([]string{"key", "issued_at"}).AddRow("existing", t0))

	c, err := repo.Upsert(context.Background(), 1, "fresh", t0)
	require.NoError(t, err)
	assert.Equal(t, "existing", c.Key)
	assert.Equal(t, int64(1), c.PrincipalID)
	assert.Equal(t, t0, c.IssuedAt)
}

func TestCredentialRepo_GetByKey(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCredentialRepo(db)

	mock.ExpectQuery("FROM credentials WHERE key = \\$1").
		WithArgs("k1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "principal_id", "issued_at"}).AddRow("k1", 3, t0))
	mock.ExpectQuery("FROM credentials WHERE key = \\$1").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	c, err := repo.GetByKey(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.PrincipalID)

	_, err = repo.GetByKey(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCredentialRepo_DeleteExpiredMatchesIssuedAt(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCredentialRepo(db)

	mock.ExpectExec("DELETE FROM credentials WHERE key = \\$1 AND issued_at = \\$2").
		WithArgs("k1", t0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteExpired(context.Background(), "k1", t0))
}

func TestPrincipalRepo_GetByUsername(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewPrincipalRepo(db)

	cols := []string{"id", "username", "email", "first_name", "last_name", "password_hash",
		"is_active", "is_staff", "is_superuser", "date_joined", "last_login"}
	mock.ExpectQuery("FROM principals WHERE username = \\$1").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "admin", "a@fox.dev", "Ada", "L", "$2a$hash", true, true, false, t0, nil))

	p, err := repo.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, p.IsStaff)
	assert.Nil(t, p.LastLogin)
	assert.Equal(t, "$2a$hash", p.PasswordHash)
}

func TestContentRepo_ListCommentsEmpty(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewContentRepo(db)

	mock.ExpectQuery("WHERE c.post_id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "visitor_id", "name", "content", "created_at"}))

	list, err := repo.ListComments(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestContentRepo_DashboardStats(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewContentRepo(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM visitors").
		WillReturnRows(sqlmock.NewRows([]string{"v", "p", "c", "m", "n", "a"}).AddRow(10, 3, 4, 2, 1, 1))
	mock.ExpectQuery("FROM comments c").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "visitor_id", "name", "content", "created_at"}).
			AddRow(4, 1, 2, "Bo", "latest", t0))
	mock.ExpectQuery("FROM messages").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "visitor_id", "subject", "content", "created_at"}).
			AddRow(2, 2, "Hi", "hello", t0))

	s, err := repo.DashboardStats(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Visitors)
	assert.Equal(t, 1, s.Announcements)
	require.Len(t, s.RecentComments, 1)
	assert.Equal(t, "Bo", s.RecentComments[0].AuthorName)
	require.Len(t, s.RecentMessages, 1)
}
