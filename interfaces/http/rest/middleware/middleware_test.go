package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokens(t *testing.T, now func() time.Time) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("secret", "test", time.Hour, auth.WithTimeFunc(now))
	require.NoError(t, err)
	return tokens
}

func callerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUserFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(user.UserID))
	})
}

func TestAuthenticate(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	tokens := newTokens(t, time.Now)
	valid, err := tokens.Issue("user-1", "a@example.com")
	require.NoError(t, err)
	stale, err := newTokens(t, func() time.Time { return time.Now().Add(-2 * time.Hour) }).Issue("user-1", "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name        string
		setup       func(r *http.Request)
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "cookie",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: valid}) },
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing",
			setup:       func(r *http.Request) {},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authenticated",
		},
		{
			name:        "wrong scheme",
			setup:       func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authenticated",
		},
		{
			name:        "garbage",
			setup:       func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Could not validate credentials",
		},
		{
			name:        "expired",
			setup:       func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+stale) },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token has expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			Authenticate(tokens, errs)(callerEcho()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "user-1", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), tt.wantMessage)
			}
		})
	}
}

func TestAuthenticate_FillsLoggerSlot(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	tokens := newTokens(t, time.Now)
	token, err := tokens.Issue("user-9", "z@example.com")
	require.NoError(t, err)

	slot := &auth.UserContext{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(withCallerSlot(req.Context(), slot))
	req.Header.Set("Authorization", "Bearer "+token)

	Authenticate(tokens, errs)(callerEcho()).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-9", slot.UserID)
	assert.Equal(t, "z@example.com", slot.Email)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func (l *stubLimiter) Reset(context.Context, string) error { return nil }

func TestRateLimit(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusNoContent},
		{"rejected", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter error lets the request through", &stubLimiter{err: errors.New("down")}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = "203.0.113.7:5555"
			rec := httptest.NewRecorder()

			RateLimit(tt.limiter, errs, zap.NewNop())(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, []string{"203.0.113.7"}, tt.limiter.keys)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.3")
	assert.Equal(t, "198.51.100.1", ClientIP(req))
}

type observation struct {
	method string
	route  string
	status int
}

type recorderFunc func(method, route string, status int, duration time.Duration)

func (f recorderFunc) RecordHTTP(method, route string, status int, duration time.Duration) {
	f(method, route, status, duration)
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	var seen []observation
	rec := recorderFunc(func(method, route string, status int, _ time.Duration) {
		seen = append(seen, observation{method, route, status})
	})

	router := chi.NewRouter()
	router.Use(Metrics(rec))
	router.Get("/notes/{noteID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/notes/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	assert.Equal(t, []observation{
		{http.MethodGet, "/notes/{noteID}", http.StatusNotFound},
		{http.MethodGet, "/plain", http.StatusOK},
	}, seen)
}
