package middleware

import (
	"net/http"

	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// RateLimit throttles requests per client IP
func RateLimit(limiter auth.RateLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				// fail open
				logger.Error("Rate limiter error", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Warn("Rate limit exceeded", zap.String("ip", clientIP), zap.String("path", r.URL.Path))
				errs.Handle(w, r, pkgerrors.NewRateLimitError("Too many attempts, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
