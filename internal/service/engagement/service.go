package engagement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/mailing"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
	"github.com/foxfolio/portfolio-api/internal/service/auth"
	"github.com/foxfolio/portfolio-api/internal/service/notify"
)

// recentItems is how many recent comments and messages the dashboard shows.
const recentItems = 5

// Message kinds, used as delivery labels.
const (
	KindWelcome      = "welcome"
	KindOwnerAlert   = "owner_alert"
	KindVisit        = "visit"
	KindNewsletter   = string(domain.BroadcastNewsletter)
	KindAnnouncement = string(domain.BroadcastAnnouncement)
)

// Deps groups the collaborators of Service. Gate, Archive and Observer are
// optional.
type Deps struct {
	Visitors   VisitorRegistry
	Content    ContentStore
	Stats      StatsReader
	Dispatcher *notify.Dispatcher
	Composer   *mailing.Composer
	OwnerEmail string
	Gate       VisitGate
	Archive    Archiver
	Observer   Observer
}

// Service orchestrates engagement actions.
type Service struct {
	d   Deps
	now func() time.Time
}

// NewService creates the engagement service.
func NewService(d Deps) *Service {
	return &Service{d: d, now: time.Now}
}

// SubscribeResult is returned by Subscribe.
type SubscribeResult struct {
	Message string `json:"message"`
	Created bool   `json:"-"`
}

// Subscribe registers email as a visitor. Only a newly created visitor gets
// the welcome mail and triggers the owner alert.
func (s *Service) Subscribe(ctx context.Context, email, name string) (SubscribeResult, error) {
	v, created, err := s.d.Visitors.FindOrCreate(ctx, email, name)
	if err != nil {
		return SubscribeResult{}, err
	}
	if !created {
		return SubscribeResult{
			Message: fmt.Sprintf("Thanks! %s is already subscribed to our news.", v.Email),
		}, nil
	}

	s.visitorCreated()
	if m, err := s.d.Composer.Welcome(v); err == nil {
		s.d.Dispatcher.SendOne(ctx, KindWelcome, v.Email, content(m))
	} else {
		logger.Error("welcome mail not rendered", "error", err)
	}
	if m, err := s.d.Composer.NewSubscriber(v); err == nil {
		s.notifyOwner(ctx, m)
	} else {
		logger.Error("subscriber alert not rendered", "error", err)
	}

	return SubscribeResult{
		Message: fmt.Sprintf("Thanks! %s is now subscribed to our news.", v.Email),
		Created: true,
	}, nil
}

// CommentInput is a visitor comment as submitted.
type CommentInput struct {
	PostID  int64
	Email   string
	Name    string
	Content string
}

// AddComment stores a comment on an existing post, registering the commenter
// as a visitor (or updating their name) along the way.
func (s *Service) AddComment(ctx context.Context, in CommentInput) (domain.Comment, error) {
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return domain.Comment{}, err
	}
	if err := requireEmailAndContent(in.Email, in.Content); err != nil {
		return domain.Comment{}, err
	}

	v, err := s.resolveVisitor(ctx, in.Email, in.Name)
	if err != nil {
		return domain.Comment{}, err
	}

	c := domain.Comment{
		PostID:     in.PostID,
		VisitorID:  v.ID,
		AuthorName: v.Name,
		Content:    strings.TrimSpace(in.Content),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.d.Content.CreateComment(ctx, &c); err != nil {
		return domain.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// ListComments returns the comments of a post, newest first.
func (s *Service) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.d.Content.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// MessageInput is a contact-form submission.
type MessageInput struct {
	Email   string
	Name    string
	Subject string
	Content string
}

// ContactMessage stores a message for the site owner and alerts them.
func (s *Service) ContactMessage(ctx context.Context, in MessageInput) (string, error) {
	if err := requireEmailAndContent(in.Email, in.Content); err != nil {
		return "", err
	}
	v, err := s.resolveVisitor(ctx, in.Email, in.Name)
	if err != nil {
		return "", err
	}

	m := domain.Message{
		VisitorID: v.ID,
		Subject:   strings.TrimSpace(in.Subject),
		Content:   strings.TrimSpace(in.Content),
		CreatedAt: s.now().UTC(),
	}
	if err := s.d.Content.CreateMessage(ctx, &m); err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	if mail, err := s.d.Composer.ContactMessage(v, m); err == nil {
		s.notifyOwner(ctx, mail)
	} else {
		logger.Error("contact alert not rendered", "error", err)
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		return fmt.Sprintf("Thanks %s for your message!", name), nil
	}
	return "Thanks for your message!", nil
}

// BroadcastNewsletter persists n and mails it to every visitor. The
// newsletter is rendered once up front so a broken template fails before
// anyone receives anything.
func (s *Service) BroadcastNewsletter(ctx context.Context, by domain.Principal, n domain.Newsletter) (domain.Newsletter, domain.DeliveryReport, error) {
	if err := auth.RequireStaff(by); err != nil {
		return n, domain.DeliveryReport{}, err
	}
	if err := n.Validate(); err != nil {
		return n, domain.DeliveryReport{}, err
	}
	preview, err := s.d.Composer.Newsletter(n, domain.Visitor{})
	if err != nil {
		return n, domain.DeliveryReport{}, err
	}

	ctx = context.WithoutCancel(ctx)
	n.CreatedAt = s.now().UTC()
	if err := s.d.Content.CreateNewsletter(ctx, &n); err != nil {
		return n, domain.DeliveryReport{}, fmt.Errorf("create newsletter: %w", err)
	}
	s.archive(ctx, domain.BroadcastNewsletter, n.ID, preview.HTML)
	s.broadcastStarted(KindNewsletter)

	report, err := s.d.Dispatcher.SendBatch(ctx, KindNewsletter, s.d.Visitors.All(ctx), func(v domain.Visitor) (notify.Content, error) {
		m, err := s.d.Composer.Newsletter(n, v)
		return content(m), err
	})
	logger.Info("newsletter broadcast",
		"newsletter_id", n.ID, "principal_id", by.ID,
		"attempted", report.Attempted, "failed", report.Failed)
	return n, report, err
}

// BroadcastAnnouncement persists a and mails it to every visitor. The body
// is the same for every recipient and is rendered once.
func (s *Service) BroadcastAnnouncement(ctx context.Context, by domain.Principal, a domain.Announcement) (domain.Announcement, domain.DeliveryReport, error) {
	if err := auth.RequireStaff(by); err != nil {
		return a, domain.DeliveryReport{}, err
	}
	if err := a.Validate(); err != nil {
		return a, domain.DeliveryReport{}, err
	}
	m, err := s.d.Composer.Announcement(a)
	if err != nil {
		return a, domain.DeliveryReport{}, err
	}

	ctx = context.WithoutCancel(ctx)
	a.CreatedAt = s.now().UTC()
	if err := s.d.Content.CreateAnnouncement(ctx, &a); err != nil {
		return a, domain.DeliveryReport{}, fmt.Errorf("create announcement: %w", err)
	}
	s.archive(ctx, domain.BroadcastAnnouncement, a.ID, m.HTML)
	s.broadcastStarted(KindAnnouncement)

	body := content(m)
	report, err := s.d.Dispatcher.SendBatch(ctx, KindAnnouncement, s.d.Visitors.All(ctx), func(domain.Visitor) (notify.Content, error) {
		return body, nil
	})
	logger.Info("announcement broadcast",
		"announcement_id", a.ID, "principal_id", by.ID,
		"attempted", report.Attempted, "failed", report.Failed)
	return a, report, err
}

// TrackVisit alerts the owner about a visit. Repeat visits from the same
// client to the same page inside the dedupe window are dropped. Nothing
// here can fail the caller.
func (s *Service) TrackVisit(ctx context.Context, v domain.Visit) {
	if s.d.OwnerEmail == "" {
		return
	}
	if s.d.Gate != nil {
		first, err := s.d.Gate.First(ctx, "visit", v.IP, v.Page)
		if err != nil {
			logger.Warn("visit dedupe unavailable", "error", err)
		}
		if !first {
			logger.Debug("visit alert suppressed", "page", v.Page)
			return
		}
	}
	m, err := s.d.Composer.Visit(v)
	if err != nil {
		logger.Error("visit alert not rendered", "error", err)
		return
	}
	s.d.Dispatcher.SendOne(ctx, KindVisit, s.d.OwnerEmail, content(m))
}

// DashboardStats returns aggregate counts and the latest activity.
func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	stats, err := s.d.Stats.DashboardStats(ctx, recentItems)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *Service) requirePost(ctx context.Context, postID int64) error {
	ok, err := s.d.Content.PostExists(ctx, postID)
	if err != nil {
		return fmt.Errorf("lookup post: %w", err)
	}
	if !ok {
		return ErrPostNotFound
	}
	return nil
}

// resolveVisitor finds or creates the visitor and applies a non-empty name
// to an existing one.
func (s *Service) resolveVisitor(ctx context.Context, email, name string) (domain.Visitor, error) {
	v, created, err := s.d.Visitors.FindOrCreate(ctx, email, name)
	if err != nil {
		return domain.Visitor{}, err
	}
	if created {
		s.visitorCreated()
		return v, nil
	}
	if err := s.d.Visitors.UpdateName(ctx, &v, name); err != nil {
		return domain.Visitor{}, err
	}
	return v, nil
}

func (s *Service) notifyOwner(ctx context.Context, m mailing.Mail) {
	if s.d.OwnerEmail == "" {
		return
	}
	s.d.Dispatcher.SendOne(ctx, KindOwnerAlert, s.d.OwnerEmail, content(m))
}

func (s *Service) archive(ctx context.Context, kind domain.BroadcastKind, id int64, html string) {
	if s.d.Archive == nil {
		return
	}
	if err := s.d.Archive.Put(ctx, kind, id, html); err != nil {
		logger.Warn("broadcast not archived", "kind", kind, "id", id, "error", err)
	}
}

func (s *Service) visitorCreated() {
	if s.d.Observer != nil {
		s.d.Observer.VisitorCreated()
	}
}

func (s *Service) broadcastStarted(kind string) {
	if s.d.Observer != nil {
		s.d.Observer.BroadcastStarted(kind)
	}
}

func requireEmailAndContent(email, body string) error {
	if strings.TrimSpace(email) == "" {
		return domain.Required("email")
	}
	if strings.TrimSpace(body) == "" {
		return domain.Required("content")
	}
	return nil
}

func content(m mailing.Mail) notify.Content {
	return notify.Content{Subject: m.Subject, Text: m.Text, HTML: m.HTML}
}
