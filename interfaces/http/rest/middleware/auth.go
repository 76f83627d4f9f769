package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// TokenValidator checks bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type callerSlotKey struct{}

func withCallerSlot(ctx context.Context, slot *auth.UserContext) context.Context {
	return context.WithValue(ctx, callerSlotKey{}, slot)
}

// Authenticate rejects requests without a valid access token and puts the
// caller into the request context.
func Authenticate(tokens TokenValidator, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Not authenticated"))
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				message := "Could not validate credentials"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "Token has expired"
				}
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(message).WithCause(err))
				return
			}

			userCtx := &auth.UserContext{
				UserID: claims.UserID(),
				Email:  claims.Email,
			}
			if slot, ok := r.Context().Value(callerSlotKey{}).(*auth.UserContext); ok {
				*slot = *userCtx
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), userCtx)))
		})
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// ClientIP extracts the client IP address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
