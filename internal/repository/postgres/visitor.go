package postgres

import (
	"context"
	"database/sql"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// VisitorRepo implements visitor.Repository against PostgreSQL.
type VisitorRepo struct{ db *sql.DB }

// NewVisitorRepo creates a Postgres-backed visitor repository.
func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

func (r *VisitorRepo) GetByEmail(ctx context.Context, email string) (*domain.Visitor, error) {
	v := &domain.Visitor{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, registered_at
		FROM visitors
		WHERE email = $1
	`, email).Scan(&v.ID, &v.Email, &v.Name, &v.RegisteredAt)
	if err != nil {
		return nil, mapErr("get visitor", err)
	}
	return v, nil
}

func (r *VisitorRepo) Create(ctx context.Context, v *domain.Visitor) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO visitors (email, name, registered_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, v.Email, v.Name, v.RegisteredAt).Scan(&v.ID)
	return mapErr("create visitor", err)
}

func (r *VisitorRepo) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE visitors SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return mapErr("update visitor name", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapErr("update visitor name", sql.ErrNoRows)
	}
	return nil
}

func (r *VisitorRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM visitors WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, mapErr("visitor exists", err)
}

func (r *VisitorRepo) Page(ctx context.Context, afterID int64, limit int) ([]domain.Visitor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, name, registered_at
		FROM visitors
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, mapErr("page visitors", err)
	}
	defer rows.Close()

	var out []domain.Visitor
	for rows.Next() {
		var v domain.Visitor
		if err := rows.Scan(&v.ID, &v.Email, &v.Name, &v.RegisteredAt); err != nil {
			return nil, mapErr("scan visitor", err)
		}
		out = append(out, v)
	}
	return out, mapErr("page visitors", rows.Err())
}

func (r *VisitorRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`).Scan(&n)
	return n, mapErr("count visitors", err)
}
