package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pratik-mahalle/parlour/internal/api/handlers"
	"github.com/pratik-mahalle/parlour/internal/api/middleware"
	"github.com/pratik-mahalle/parlour/internal/config"
	"github.com/pratik-mahalle/parlour/internal/domain/usage"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/metrics"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Chat      *handlers.ChatHandler
	Billing   *handlers.BillingHandler
	Analytics *handlers.AnalyticsHandler
}

// Deps are the non-handler collaborators the router wires into middleware.
// Nil limiters are created from cfg; their owner is expected to Run cleanup.
type Deps struct {
	Verifier    middleware.TokenVerifier
	Gate        *middleware.Gate
	IPLimiter   *middleware.RateLimiter
	UserLimiter *middleware.RateLimiter
}

// New builds the HTTP routing tree
func New(cfg *config.Config, log *logger.Logger, h *Handlers, deps Deps) http.Handler {
	if deps.IPLimiter == nil {
		deps.IPLimiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}
	if deps.UserLimiter == nil {
		deps.UserLimiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.FrontendCORS(cfg.Server.FrontendURL, cfg.Server.Environment))

	// Operational routes
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", h.Health.Health)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Use(deps.IPLimiter.ByIP)

		// Public routes
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Get("/characters", h.Chat.Characters)
		r.Get("/pricing", h.Billing.Pricing)
		r.Post("/stripe-webhook", h.Billing.Webhook)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.Verifier))
			r.Use(deps.UserLimiter.ByUser)

			r.Get("/auth/status", h.Auth.Status)
			r.Get("/analytics", h.Analytics.Get)
			r.Post("/create-checkout-session", h.Billing.CreateCheckout)
			r.Post("/cancel-subscription", h.Billing.CancelSubscription)

			// Metered routes
			r.With(deps.Gate.Metered(usage.Messages, 1)).Post("/chat", h.Chat.Chat)
			r.With(deps.Gate.Metered(usage.ComputeTime, cfg.Quota.TTSComputeEstimate)).Post("/tts", h.Chat.TTS)
		})
	})

	return r
}
