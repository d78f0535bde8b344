package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
)

// AuthMiddleware validates bearer tokens on API requests. It is mounted
// only when a JWT secret is configured; without one, the gateway is open.
type AuthMiddleware struct {
	secret []byte
	logger log.Logger
}

// NewAuthMiddleware creates the middleware with the given HMAC secret.
func NewAuthMiddleware(secret string, logger log.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		logger: logger.WithName("auth"),
	}
}

// Wrap enforces a valid bearer token before the wrapped handler runs.
// WebSocket clients that cannot set headers may pass the token in the
// access_token query parameter instead.
func (a *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			a.reject(w, "missing bearer token")
			return
		}

		if _, err := jwt.Parse(token, a.keyFunc, jwt.WithValidMethods([]string{"HS256"})); err != nil {
			a.logger.Debug("token rejected", "error", err)
			a.reject(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *AuthMiddleware) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return a.secret, nil
}

func (a *AuthMiddleware) reject(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(APIResponse{Error: msg})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}
