package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/exlog/exlog/internal/cache"
)

// WriteLimiter admits writes against a per-route, per-client token bucket.
// *cache.Cache satisfies it.
type WriteLimiter interface {
	AllowWrite(ctx context.Context, route cache.WriteRoute, ip string, budget cache.Budget) (*cache.Decision, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter WriteLimiter
	Enabled bool
	// Budgets holds one budget per write route; a route without one is not limited.
	Budgets map[cache.WriteRoute]cache.Budget
}

// RateLimitWrites limits one write route per client IP. Limiter errors fail
// open. With no limiter or no budget for route the middleware is a pass-through.
func RateLimitWrites(cfg RateLimitConfig, route cache.WriteRoute) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		budget, ok := cfg.Budgets[route]
		if !cfg.Enabled || cfg.Limiter == nil || !ok {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := cfg.Limiter.AllowWrite(r.Context(), route, clientIP(r), budget)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("route", string(route)),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(budget.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				retry := retryAfterSeconds(decision.RetryAfter)
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("route", string(route)),
					slog.String("path", r.URL.Path),
					slog.Int("retry_after_seconds", retry),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED",
					fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up; Retry-After has whole-second resolution.
func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware runs
// first and has already applied X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
