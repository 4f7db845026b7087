package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/gate"
)

// KeyToucher refreshes last_used on a key without counting usage.
type KeyToucher interface {
	TouchAPIKey(ctx context.Context, key string, at time.Time) error
}

type keyInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type validateKeyResponse struct {
	Valid   bool    `json:"valid"`
	Message string  `json:"message"`
	KeyInfo keyInfo `json:"keyInfo"`
}

// NewValidateKeyHandler returns the handler for POST /api/validate-key. It
// checks that a key exists without consuming quota. The key is read from
// the JSON body field apiKey, falling back to the x-api-key header.
func NewValidateKeyHandler(keys gate.KeyStore, toucher KeyToucher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			APIKey string `json:"apiKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		presented := strings.TrimSpace(req.APIKey)
		if presented == "" {
			presented = strings.TrimSpace(r.Header.Get(mw.APIKeyHeader))
		}
		if presented == "" {
			response.Gate(w, gate.MissingKey{})
			return
		}

		key, err := keys.Find(r.Context(), presented)
		switch {
		case errors.Is(err, gate.ErrKeyNotFound):
			response.Gate(w, gate.InvalidKey{})
			return
		case err != nil:
			slog.Error("validating api key", "error", err)
			response.Gate(w, gate.ValidationError{Err: err})
			return
		}

		if err := toucher.TouchAPIKey(r.Context(), key.Key, time.Now()); err != nil {
			slog.Warn("api key last_used not updated", "key_id", key.ID, "error", err)
		}

		response.Raw(w, http.StatusOK, validateKeyResponse{
			Valid:   true,
			Message: "API key is valid",
			KeyInfo: keyInfo{
				ID:        key.ID,
				Name:      key.Name,
				Type:      key.Type,
				CreatedAt: key.CreatedAt,
			},
		})
	}
}
