package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// PrincipalRepo implements auth.PrincipalRepository against PostgreSQL.
type PrincipalRepo struct{ db *sql.DB }

// NewPrincipalRepo creates a Postgres-backed principal repository.
func NewPrincipalRepo(db *sql.DB) *PrincipalRepo { return &PrincipalRepo{db: db} }

const principalColumns = `id, username, email, first_name, last_name, password_hash,
		       is_active, is_staff, is_superuser, date_joined, last_login`

func scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	p := &domain.Principal{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.PasswordHash,
		&p.IsActive, &p.IsStaff, &p.IsSuperuser, &p.DateJoined, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	return p, nil
}

func (r *PrincipalRepo) GetByID(ctx context.Context, id int64) (*domain.Principal, error) {
	p, err := scanPrincipal(r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get principal", err)
	}
	return p, nil
}

func (r *PrincipalRepo) GetByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	p, err := scanPrincipal(r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE username = $1`, username))
	if err != nil {
		return nil, mapErr("get principal", err)
	}
	return p, nil
}

func (r *PrincipalRepo) Create(ctx context.Context, p *domain.Principal) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO principals
			(username, email, first_name, last_name, password_hash,
			 is_active, is_staff, is_superuser, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.Username, p.Email, p.FirstName, p.LastName, p.PasswordHash,
		p.IsActive, p.IsStaff, p.IsSuperuser, p.DateJoined).Scan(&p.ID)
	return mapErr("create principal", err)
}

func (r *PrincipalRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, "update password", `UPDATE principals SET password_hash = $1 WHERE id = $2`, hash, id)
}

func (r *PrincipalRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, "touch last login", `UPDATE principals SET last_login = $1 WHERE id = $2`, at, id)
}

func (r *PrincipalRepo) update(ctx context.Context, op, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapErr(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapErr(op, sql.ErrNoRows)
	}
	return nil
}
