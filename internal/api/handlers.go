package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/httputil"
	"github.com/foxfolio/portfolio-api/internal/service/engagement"
)

// Authenticator is the part of auth.Service the HTTP layer uses.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (domain.Principal, error)
	Login(ctx context.Context, username, password string) (domain.LoginResult, error)
	UserInfo(ctx context.Context, p domain.Principal) (domain.Principal, error)
	ChangePassword(ctx context.Context, p domain.Principal, current, next string) error
}

// Engagement is the part of engagement.Service the HTTP layer uses.
type Engagement interface {
	Subscribe(ctx context.Context, email, name string) (engagement.SubscribeResult, error)
	AddComment(ctx context.Context, in engagement.CommentInput) (domain.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]domain.Comment, error)
	ContactMessage(ctx context.Context, in engagement.MessageInput) (string, error)
	BroadcastNewsletter(ctx context.Context, by domain.Principal, n domain.Newsletter) (domain.Newsletter, domain.DeliveryReport, error)
	BroadcastAnnouncement(ctx context.Context, by domain.Principal, a domain.Announcement) (domain.Announcement, domain.DeliveryReport, error)
	TrackVisit(ctx context.Context, v domain.Visit)
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
}

// Handlers contains the HTTP handlers of the public API.
type Handlers struct {
	auth       Authenticator
	engagement Engagement
}

// NewHandlers creates the handler set.
func NewHandlers(a Authenticator, e Engagement) *Handlers {
	return &Handlers{auth: a, engagement: e}
}

// Login exchanges a username and password for a token.
//
//	POST /auth/token/
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	httputil.OK(w, res)
}

// UserInfo returns the authenticated principal's profile.
//
//	GET /auth/user-info/
func (h *Handlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	fresh, err := h.auth.UserInfo(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, fresh)
}

// ChangePassword replaces the authenticated principal's password.
//
//	POST /auth/change-password/
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	if err := h.auth.ChangePassword(r.Context(), p, req.current(), req.NewPassword); err != nil {
		writeCredentialError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Password changed successfully. Please log in again.")
}

// Subscribe registers a visitor for the newsletter.
//
//	POST /subscribe/
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.engagement.Subscribe(r.Context(), req.Email, req.name())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Message(w, http.StatusCreated, res.Message)
}

// ListComments returns the comments of a post.
//
//	GET /posts/{id}/comments/
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}
	comments, err := h.engagement.ListComments(r.Context(), postID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"results": comments, "count": len(comments)})
}

// AddComment adds a visitor comment to a post.
//
//	POST /posts/{id}/comments/
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	c, err := h.engagement.AddComment(r.Context(), engagement.CommentInput{
		PostID:  postID,
		Email:   req.Email,
		Name:    req.name(),
		Content: req.content(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, c)
}

// SendMessage stores a contact-form message.
//
//	POST /send-message/
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	msg, err := h.engagement.ContactMessage(r.Context(), engagement.MessageInput{
		Email:   req.Email,
		Name:    req.name(),
		Subject: req.subject(),
		Content: req.content(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Message(w, http.StatusCreated, msg)
}

type broadcastResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
	domain.DeliveryReport
}

// SendNewsletter persists a newsletter and mails it to every visitor.
//
//	POST /send-newsletter/
func (h *Handlers) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	n, report, err := h.engagement.BroadcastNewsletter(r.Context(), p, req.newsletter())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, broadcastResponse{Message: "Newsletter sent successfully!", ID: n.ID, DeliveryReport: report})
}

// SendAnnouncement persists an announcement and mails it to every visitor.
//
//	POST /send-announcement/
func (h *Handlers) SendAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	a, report, err := h.engagement.BroadcastAnnouncement(r.Context(), p, req.announcement())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, broadcastResponse{Message: "Announcement published and sent successfully!", ID: a.ID, DeliveryReport: report})
}

// TrackVisitor notifies the owner of a page visit. It always succeeds,
// even for a malformed body.
//
//	POST /track-visitor/
func (h *Handlers) TrackVisitor(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	_ = decodeQuietly(r, &req)
	h.engagement.TrackVisit(context.WithoutCancel(r.Context()), domain.Visit{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Page:      req.Page,
		Referrer:  req.referrer(r),
	})
	httputil.OK(w, map[string]string{"status": "success"})
}

// DashboardStats returns aggregate counts and recent activity.
//
//	GET /dashboard-stats/
func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engagement.DashboardStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, stats)
}

func postIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.NotFound(w, "post not found")
		return 0, false
	}
	return id, true
}
