package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/gate"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "x-api-key"

// APIKeyAuth runs every request through the API-key gate.
type APIKeyAuth struct {
	gate gate.Authenticator
}

func NewAPIKeyAuth(g gate.Authenticator) *APIKeyAuth {
	return &APIKeyAuth{gate: g}
}

// Authenticate rejects the request with the gate's flat failure body, or
// stores the Authorized outcome in the request context and sets the
// X-Usage-Current and X-Usage-Remaining headers.
func (a *APIKeyAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := a.gate.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))

		switch res := result.(type) {
		case gate.Authorized:
			w.Header().Set("X-Usage-Current", strconv.Itoa(res.Usage.CurrentUsage))
			w.Header().Set("X-Usage-Remaining", res.Usage.RemainingUsage.String())
			next.ServeHTTP(w, r.WithContext(SetAuthorized(r.Context(), res)))
		case gate.Failure:
			response.Gate(w, res)
		default:
			response.Gate(w, gate.ValidationError{})
		}
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
