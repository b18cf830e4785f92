package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const dashboardTimeout = 30 * time.Second

// RouteOptions carries the optional pieces of the router.
type RouteOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Limiter        *RateLimiter
	Health         *HealthChecker
	Metrics        http.Handler
}

// SetupRoutes configures all API routes. Paths are served both with and
// without a trailing slash.
func SetupRoutes(h *Handlers, a Authenticator, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.Health != nil {
		r.Get("/health", opts.Health.HandleHealth)
		r.Get("/health/live", opts.Health.HandleLiveness)
		r.Get("/health/ready", opts.Health.HandleReadiness)
	}
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	limited := func(r chi.Router) chi.Router {
		if opts.Limiter == nil {
			return r
		}
		return r.With(opts.Limiter.Middleware)
	}
	timed := func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}
	}

	// Public
	r.Group(func(r chi.Router) {
		timed(r)
		limited(r).Post("/auth/token", h.Login)
		limited(r).Post("/subscribe", h.Subscribe)
		limited(r).Post("/send-message", h.SendMessage)
		r.Get("/posts/{id}/comments", h.ListComments)
		limited(r).Post("/posts/{id}/comments", h.AddComment)
		r.Post("/track-visitor", h.TrackVisitor)
	})

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(requireToken(a))
		r.Group(func(r chi.Router) {
			timed(r)
			r.Get("/auth/user-info", h.UserInfo)
			r.Post("/auth/change-password", h.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireStaff)
			r.With(middleware.Timeout(dashboardTimeout)).Get("/dashboard-stats", h.DashboardStats)
			// Broadcasts run until every visitor was attempted; no request timeout.
			r.Post("/send-newsletter", h.SendNewsletter)
			r.Post("/send-announcement", h.SendAnnouncement)
		})
	})

	return r
}
