package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// ContentRepo implements engagement.ContentStore and engagement.StatsReader
// against PostgreSQL.
type ContentRepo struct{ db *sql.DB }

// NewContentRepo creates a Postgres-backed content repository.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

func (r *ContentRepo) PostExists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID,
	).Scan(&exists)
	return exists, mapErr("post exists", err)
}

func (r *ContentRepo) CreateComment(ctx context.Context, c *domain.Comment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, visitor_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.PostID, c.VisitorID, c.Content, c.CreatedAt).Scan(&c.ID)
	return mapErr("create comment", err)
}

const commentSelect = `
		SELECT c.id, c.post_id, c.visitor_id, v.name, c.content, c.created_at
		FROM comments c
		JOIN visitors v ON v.id = c.visitor_id`

func (r *ContentRepo) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	return r.queryComments(ctx, commentSelect+`
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC, c.id DESC`, postID)
}

func (r *ContentRepo) queryComments(ctx context.Context, q string, args ...any) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr("list comments", err)
	}
	defer rows.Close()

	out := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.VisitorID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, mapErr("scan comment", err)
		}
		out = append(out, c)
	}
	return out, mapErr("list comments", rows.Err())
}

func (r *ContentRepo) CreateMessage(ctx context.Context, m *domain.Message) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (visitor_id, subject, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.VisitorID, m.Subject, m.Content, m.CreatedAt).Scan(&m.ID)
	return mapErr("create message", err)
}

func (r *ContentRepo) CreateNewsletter(ctx context.Context, n *domain.Newsletter) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO newsletters
			(title, subtitle, main_content, quote, conclusion, image_url, article_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, n.Title, n.Subtitle, n.MainContent, n.Quote, n.Conclusion,
		n.ImageURL, n.ArticleURL, n.CreatedAt).Scan(&n.ID)
	return mapErr("create newsletter", err)
}

func (r *ContentRepo) CreateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO announcements (main_content, conclusion, quote, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.MainContent, a.Conclusion, a.Quote, a.ImageURL, a.CreatedAt).Scan(&a.ID)
	return mapErr("create announcement", err)
}

// DashboardStats counts every table in one round trip and then loads the
// most recent comments and messages.
func (r *ContentRepo) DashboardStats(ctx context.Context, recent int) (domain.DashboardStats, error) {
	var s domain.DashboardStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM visitors),
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM newsletters),
			(SELECT COUNT(*) FROM announcements)
	`).Scan(&s.Visitors, &s.Posts, &s.Comments, &s.Messages, &s.Newsletters, &s.Announcements)
	if err != nil {
		return s, mapErr("count content", err)
	}

	if s.RecentComments, err = r.queryComments(ctx, commentSelect+`
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $1`, recent); err != nil {
		return s, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, visitor_id, subject, content, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, recent)
	if err != nil {
		return s, mapErr("recent messages", err)
	}
	defer rows.Close()

	s.RecentMessages = []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.VisitorID, &m.Subject, &m.Content, &m.CreatedAt); err != nil {
			return s, fmt.Errorf("scan message: %w", err)
		}
		s.RecentMessages = append(s.RecentMessages, m)
	}
	return s, mapErr("recent messages", rows.Err())
}
