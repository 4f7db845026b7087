package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	APIKeyAuth  *mw.APIKeyAuth
	SessionAuth *mw.SessionAuth
	RateLimit   *mw.RateLimit
	Logger      *slog.Logger

	HealthHandler       http.HandlerFunc
	ValidateKeyHandler  http.HandlerFunc
	AuthenticateHandler http.HandlerFunc
	SummarizeHandler    http.HandlerFunc

	ListKeysHandler  http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	GetKeyHandler    http.HandlerFunc
	UpdateKeyHandler http.HandlerFunc
	DeleteKeyHandler http.HandlerFunc
	ListUsersHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger(deps.Logger))
	r.Use(mw.Recovery(deps.Logger))

	// Public
	r.Get("/api/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/validate-key", orNotImplemented(deps.ValidateKeyHandler))

	// API-key routes. The rate limiter runs first so throttled calls do not
	// count against the monthly quota.
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)
		r.Use(deps.APIKeyAuth.Authenticate)

		r.Post("/api/authenticate", orNotImplemented(deps.AuthenticateHandler))
		r.Post("/api/github-summarizer", orNotImplemented(deps.SummarizeHandler))
	})

	// Dashboard routes
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionAuth.Authenticate)

		r.Get("/api/api-keys", orNotImplemented(deps.ListKeysHandler))
		r.Post("/api/api-keys", orNotImplemented(deps.CreateKeyHandler))
		r.Get("/api/api-keys/{id}", orNotImplemented(deps.GetKeyHandler))
		r.Put("/api/api-keys/{id}", orNotImplemented(deps.UpdateKeyHandler))
		r.Delete("/api/api-keys/{id}", orNotImplemented(deps.DeleteKeyHandler))

		r.Get("/api/users", orNotImplemented(deps.ListUsersHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
