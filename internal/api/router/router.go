package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pratik-mahalle/dialekt/internal/api/handlers"
	"github.com/pratik-mahalle/dialekt/internal/api/middleware"
	"github.com/pratik-mahalle/dialekt/internal/config"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/metrics"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health  *handlers.HealthHandler
	Chat    *handlers.ChatHandler
	Plan    *handlers.PlanHandler
	Profile *handlers.ProfileHandler
	Billing *handlers.BillingHandler
}

// New builds the HTTP handler tree
func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		// Verified by the provider signature instead of a token
		r.Post("/api/v1/billing/webhook", h.Billing.Webhook)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		r.Use(middleware.UserRateLimit(cfg.RateLimit.UserRequestsPerSecond, cfg.RateLimit.UserBurst))

		r.Route("/api/v1/chat", func(r chi.Router) {
			r.Post("/", h.Chat.Send)
			r.Get("/sessions", h.Chat.ListSessions)
			r.Get("/sessions/{id}", h.Chat.GetSession)
			r.Delete("/sessions/{id}", h.Chat.DeleteSession)
		})

		r.Get("/api/v1/plan/status", h.Plan.Status)
		r.Get("/api/v1/profile", h.Profile.Get)

		r.Route("/api/v1/billing", func(r chi.Router) {
			r.Get("/plans", h.Billing.ListPlans)
			r.Post("/checkout", h.Billing.CreateCheckoutSession)
			r.Post("/subscription", h.Billing.UpdateSubscription)
		})
	})

	return r
}
