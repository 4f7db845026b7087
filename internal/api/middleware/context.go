package middleware

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/dandi/internal/gate"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

type contextKey string

const (
	authorizedKey contextKey = "api_key_authorized"
	userKey       contextKey = "session_user"
)

// SetAuthorized stores the gate's Authorized outcome in ctx.
func SetAuthorized(ctx context.Context, a gate.Authorized) context.Context {
	return context.WithValue(ctx, authorizedKey, a)
}

// GetAuthorized returns the gate outcome stored by APIKeyAuth.
func GetAuthorized(r *http.Request) (gate.Authorized, bool) {
	a, ok := r.Context().Value(authorizedKey).(gate.Authorized)
	return a, ok
}

func SetUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the dashboard user resolved by SessionAuth.
func GetUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(userKey).(*models.User)
	return u, ok && u != nil
}
