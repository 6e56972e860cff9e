package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"flowbuilder/pkg/auth"
)

// RateLimit rejects clients that exceed limiter, keyed by client IP
func RateLimit(limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				respondWithError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal server error")
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				respondWithError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
