package engagement

import (
	"context"
	"iter"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// ContentStore persists the records engagement actions create. Posts are
// read-only here.
type ContentStore interface {
	PostExists(ctx context.Context, postID int64) (bool, error)
	CreateComment(ctx context.Context, c *domain.Comment) error
	ListComments(ctx context.Context, postID int64) ([]domain.Comment, error)
	CreateMessage(ctx context.Context, m *domain.Message) error
	CreateNewsletter(ctx context.Context, n *domain.Newsletter) error
	CreateAnnouncement(ctx context.Context, a *domain.Announcement) error
}

// StatsReader serves the admin dashboard read model.
type StatsReader interface {
	DashboardStats(ctx context.Context, recent int) (domain.DashboardStats, error)
}

// VisitorRegistry is the subset of visitor.Service used here.
type VisitorRegistry interface {
	FindOrCreate(ctx context.Context, email, name string) (domain.Visitor, bool, error)
	UpdateName(ctx context.Context, v *domain.Visitor, name string) error
	All(ctx context.Context) iter.Seq2[domain.Visitor, error]
}

// VisitGate decides whether a visit is new enough to alert the owner.
type VisitGate interface {
	First(ctx context.Context, parts ...string) (bool, error)
}

// Archiver keeps a copy of each rendered broadcast.
type Archiver interface {
	Put(ctx context.Context, kind domain.BroadcastKind, id int64, html string) error
}

// Observer receives business events for metrics.
type Observer interface {
	VisitorCreated()
	BroadcastStarted(kind string)
}
