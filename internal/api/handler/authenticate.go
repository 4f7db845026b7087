package handler

import (
	"net/http"

	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/gate"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

type authenticateResponse struct {
	Valid     bool           `json:"valid"`
	KeyData   models.KeyData `json:"keyData"`
	UsageInfo gate.UsageInfo `json:"usageInfo"`
}

// NewAuthenticateHandler returns the handler for POST /api/authenticate. The
// gate middleware has already done the work; the body reports its outcome.
// keyData is the record as read before this request's increment.
func NewAuthenticateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := mw.GetAuthorized(r)
		if !ok || auth.Key == nil {
			response.Gate(w, gate.InvalidKey{})
			return
		}
		response.Raw(w, http.StatusOK, authenticateResponse{
			Valid:     true,
			KeyData:   auth.Key.Data(),
			UsageInfo: auth.Usage,
		})
	}
}
