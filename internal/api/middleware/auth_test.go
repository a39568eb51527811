package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/api/middleware"
	"github.com/flightrisk/flightrisk/internal/auth"
)

const testSigningKey = "test-secret-key-for-testing-only"

func newTestTokenService(t *testing.T, now func() time.Time) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: testSigningKey,
		Now:        now,
	})
	require.NoError(t, err)
	return svc
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuth_MissingAuthorizationHeader(t *testing.T) {
	handler := middleware.AdminAuth(newTestTokenService(t, nil))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAdminAuth_InvalidAuthorizationFormat(t *testing.T) {
	handler := middleware.AdminAuth(newTestTokenService(t, nil))(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase no space", "bearertoken123"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAdminAuth_InvalidToken(t *testing.T) {
	handler := middleware.AdminAuth(newTestTokenService(t, nil))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid service token")
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 2, 11, 8, 0, 0, 0, time.UTC)
	issuer := newTestTokenService(t, func() time.Time { return issuedAt })
	token, _, err := issuer.Issue("ops-bot", []string{auth.ScopeAdmin}, time.Hour)
	require.NoError(t, err)

	later := newTestTokenService(t, func() time.Time { return issuedAt.Add(2 * time.Hour) })
	handler := middleware.AdminAuth(later)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestAdminAuth_MissingScope(t *testing.T) {
	tokens := newTestTokenService(t, nil)
	token, _, err := tokens.Issue("dashboard", []string{"read"}, time.Hour)
	require.NoError(t, err)

	handler := middleware.AdminAuth(tokens)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/cache/invalidate", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestAdminAuth_ValidToken(t *testing.T) {
	tokens := newTestTokenService(t, nil)
	token, _, err := tokens.Issue("ops-bot", []string{auth.ScopeAdmin}, time.Hour)
	require.NoError(t, err)

	var capturedSubject string
	handler := middleware.AdminAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedSubject = middleware.GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops-bot", capturedSubject)
}

func TestAdminAuth_CaseInsensitiveBearer(t *testing.T) {
	tokens := newTestTokenService(t, nil)
	token, _, err := tokens.Issue("ops-bot", []string{auth.ScopeAdmin}, time.Hour)
	require.NoError(t, err)

	handler := middleware.AdminAuth(tokens)(okHandler())

	for _, prefix := range []string{"Bearer ", "bearer ", "BEARER "} {
		t.Run(prefix, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
			req.Header.Set("Authorization", prefix+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAdminAuth_NotConfigured(t *testing.T) {
	handler := middleware.AdminAuth(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetSubject_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Empty(t, middleware.GetSubject(req.Context()))
}
