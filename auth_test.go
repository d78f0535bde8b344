package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
)

const testJWTSecret = "test-secret"

func signTestToken(t *testing.T, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authProtectedHandler() http.Handler {
	mw := NewAuthMiddleware(testJWTSecret, log.NewNoopLogger())
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthAcceptsValidToken(t *testing.T) {
	handler := authProtectedHandler()

	req := httptest.NewRequest(http.MethodPost, "/rpc/getBlockDagInfo", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testJWTSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	handler := authProtectedHandler()

	req := httptest.NewRequest(http.MethodGet,
		"/ws/subscribeUtxoChanges?addresses=kaspa:qqa&access_token="+signTestToken(t, testJWTSecret), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := authProtectedHandler()

	req := httptest.NewRequest(http.MethodPost, "/rpc/getBlockDagInfo", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	handler := authProtectedHandler()

	req := httptest.NewRequest(http.MethodPost, "/rpc/getBlockDagInfo", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "other-secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	handler := authProtectedHandler()
	req := httptest.NewRequest(http.MethodPost, "/rpc/getBlockDagInfo", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
