// internal/middleware/auth.go
package middleware

// Usage example:
// 	r.Group(func(r chi.Router) {
// 		r.Use(AuthMiddleware(authService))
// 		r.Get("/partners", partnerHandler.List)
// 	})
//
// 	func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
// 		user := middleware.UserFrom(r.Context())
// 		...
// 	}

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type UserContextKey string

var UserKey UserContextKey = "partnerhub_user"

// PrincipalResolver turns a bearer token into the authenticated user.
type PrincipalResolver interface {
	Principal(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware creates a middleware that validates JWT access tokens and
// stores the resolved principal in the request context.
func AuthMiddleware(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			user, err := resolver.Principal(r.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrInactiveUser):
					respondWithError(w, http.StatusUnauthorized, "User is inactive")
				case errors.Is(err, domain.ErrInvalidToken):
					respondWithError(w, http.StatusUnauthorized, "Invalid token")
				default:
					slog.ErrorContext(r.Context(), "resolving principal", "error", err, "requestID", chimw.GetReqID(r.Context()))
					respondWithError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFrom returns the authenticated user, or nil outside of
// AuthMiddleware.
func UserFrom(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]any{"ok": false, "error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
