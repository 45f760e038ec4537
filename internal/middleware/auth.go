package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pocketpet/api/internal/auth"
	"github.com/pocketpet/api/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserContextKey is the key for storing user claims in request context
	UserContextKey contextKey = "user"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Authenticator resolves a bearer token to live claims
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.CustomClaims, error)
}

// RequireAuth validates the bearer token and its session. A missing header is
// 401; a malformed, invalid, expired or revoked token is 403.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				WriteError(w, http.StatusForbidden, "Invalid authorization header format. Use: Bearer <token>")
				return
			}

			claims, err := authn.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if service.KindOf(err) == service.KindInternal {
					WriteError(w, http.StatusInternalServerError, service.MessageOf(err))
					return
				}
				WriteError(w, http.StatusForbidden, service.MessageOf(err))
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserClaims extracts user claims from request context
func GetUserClaims(r *http.Request) (*auth.CustomClaims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(*auth.CustomClaims)
	return claims, ok
}

// WriteError writes a JSON error body with the given status
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
