package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, if any
func PrincipalFromContext(ctx context.Context) (*services.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*services.Principal)
	return principal, ok
}

// AuthMiddleware verifies the bearer token and stores the principal in
// the request context. requireRole narrows access further; an empty
// role admits any authenticated user.
type AuthMiddleware struct {
	auth *services.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Require wraps a handler so only authenticated requests reach it
func (m *AuthMiddleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole("", next)
}

// RequireRole wraps a handler so only authenticated requests holding
// the given role reach it
func (m *AuthMiddleware) RequireRole(role entities.UserRole, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		principal, err := m.auth.VerifyToken(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		if role != "" && principal.Role != role {
			forbidden(w, "insufficient permissions")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusForbidden, message)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
