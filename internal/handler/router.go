package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/exlog/exlog/internal/cache"
	"github.com/exlog/exlog/internal/middleware"
	"github.com/exlog/exlog/internal/service"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Logger    *slog.Logger
	Users     *service.UserService
	Exercises *service.ExerciseService
	Health    *HealthHandler
	// Metrics serves /metrics; nil leaves the route unregistered.
	Metrics http.Handler

	RateLimit          middleware.RateLimitConfig
	CORS               middleware.CORSConfig
	Security           middleware.SecurityConfig
	MaxRequestBodySize int64
	IncludePanicStack  bool
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := New()
	users := NewUserHandler(cfg.Users, cfg.Logger)
	exercises := NewExerciseHandler(cfg.Exercises, cfg.Logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.IncludePanicStack))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/", h.Hello)
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	limitUsers := middleware.RateLimitWrites(cfg.RateLimit, cache.RouteCreateUser)
	limitExercises := middleware.RateLimitWrites(cfg.RateLimit, cache.RouteLogExercise)

	r.Route("/api/users", func(r chi.Router) {
		if cfg.MaxRequestBodySize > 0 {
			r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		}

		r.Get("/", users.List)
		r.With(limitUsers).Post("/", users.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", users.Get)
			r.With(limitExercises).Post("/exercises", exercises.Create)
			r.Get("/logs", exercises.Log)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
