package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scamshield/internal/api/handlers"
	apimiddleware "scamshield/internal/api/middleware"
	"scamshield/internal/config"
	"scamshield/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.RateLimitStore
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter may be nil, in which
// case requests are not rate limited.
func NewRouter(cfg config.Config, h *handlers.Handlers, limiter apimiddleware.RateLimitStore, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  limiter,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(apimiddleware.Metrics)

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public endpoints
	router.Get("/health", r.handlers.Health.Check)
	router.Get("/ready", r.handlers.Health.Ready)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.JWTAuth(r.config.JWT))
		api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))

		// The live feed is long-lived and must not sit behind the timeout
		api.Get("/community/live", r.handlers.Streaming.HandleWebSocket)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(30 * time.Second))

			api.Route("/scans", func(scans chi.Router) {
				scans.Post("/", r.handlers.Scans.Scan)
				scans.Get("/", r.handlers.Scans.List)
				scans.Get("/stats", r.handlers.Scans.Stats)
				scans.Get("/analytics", r.handlers.Scans.Analytics)
				scans.Get("/export", r.handlers.Scans.Export)
				scans.Get("/{id}", r.handlers.Scans.Get)
			})

			api.Get("/activity", r.handlers.Scans.Activity)

			api.Route("/community", func(c chi.Router) {
				c.Get("/live/stats", r.handlers.Streaming.GetStats)
				c.Get("/my-reports", r.handlers.Community.MyReports)
				c.Route("/reports", func(reports chi.Router) {
					reports.Post("/", r.handlers.Community.Submit)
					reports.Get("/", r.handlers.Community.List)
					reports.Get("/{id}", r.handlers.Community.Get)
					reports.Post("/{id}/vote", r.handlers.Community.Vote)
					reports.Post("/{id}/verify", r.handlers.Community.Verify)
				})
			})

			api.Route("/reputation", func(rep chi.Router) {
				rep.Get("/me", r.handlers.Reputation.Me)
				rep.Get("/{userID}", r.handlers.Reputation.Get)
			})
			api.Get("/leaderboard", r.handlers.Reputation.Leaderboard)

			api.Route("/blacklist", func(bl chi.Router) {
				bl.Get("/", r.handlers.Blacklist.List)
				bl.Post("/report", r.handlers.Blacklist.Report)
				bl.Get("/{phone}", r.handlers.Blacklist.Get)
				bl.Get("/{phone}/related", r.handlers.Blacklist.Related)
			})
		})
	})

	return router
}
