package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/session"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// SessionResolver turns a session token into the signed-in user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// SessionAuth protects the dashboard routes with a bearer session token.
type SessionAuth struct {
	resolver SessionResolver
}

func NewSessionAuth(r SessionResolver) *SessionAuth {
	return &SessionAuth{resolver: r}
}

func (s *SessionAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"UNAUTHORIZED", "Missing or invalid Authorization header", nil)
			return
		}

		user, err := s.resolver.Resolve(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrTokenExpired):
			response.Error(w, http.StatusUnauthorized,
				"SESSION_EXPIRED", "Session has expired, please sign in again", nil)
			return
		case errors.Is(err, session.ErrInvalidToken):
			response.Error(w, http.StatusUnauthorized,
				"UNAUTHORIZED", "Invalid session token", nil)
			return
		default:
			slog.Error("resolving session user", "error", err)
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to resolve session", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
	})
}
