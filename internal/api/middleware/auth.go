package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/domain"
)

type contextKey string

const UserKey contextKey = "user"

// SessionValidator resolves a bearer session token to a user.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*domain.User, error)
}

// SessionAuth authenticates requests with a bearer session token and puts
// the resolved user on the request context.
func SessionAuth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := validator.Validate(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated user from context, or nil.
func GetUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(UserKey).(*domain.User)
	return user
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(ctx context.Context) int64 {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return 0
}
