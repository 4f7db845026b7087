package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/store"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

const keyPrefix = "ak_"

// APIKeyStore is the subset of the store used by the dashboard key handlers.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	UpdateAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID, patch models.APIKeyPatch) (*models.APIKey, error)
	DeleteAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// APIKeyHandler serves the signed-in user's API keys. Every operation is
// scoped to the owner; another user's key is reported as not found.
type APIKeyHandler struct {
	store  APIKeyStore
	newKey func() (string, error)
	now    func() time.Time
}

func NewAPIKeyHandler(s APIKeyStore) *APIKeyHandler {
	return &APIKeyHandler{store: s, newKey: GenerateKey, now: time.Now}
}

// GenerateKey returns a fresh key string: "ak_" followed by 32 hex characters.
func GenerateKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return keyPrefix + hex.EncodeToString(b), nil
}

type keyRequest struct {
	Name              string  `json:"name"`
	Type              *string `json:"type"`
	LimitMonthlyUsage *bool   `json:"limitMonthlyUsage"`
	MonthlyLimit      *int    `json:"monthlyLimit"`
}

// validate trims the name and returns the first problem, or "".
func (req *keyRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Type != nil && !models.ValidKeyType(*req.Type) {
		return "type must be development or production"
	}
	if req.MonthlyLimit != nil && *req.MonthlyLimit <= 0 {
		return "monthlyLimit must be greater than 0"
	}
	return ""
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := mw.GetUser(r)
	if !ok {
		unauthorized(w)
		return
	}

	keys, err := h.store.ListAPIKeys(r.Context(), user.ID)
	if err != nil {
		internalError(w, "listing api keys", err)
		return
	}
	response.JSON(w, keys)
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := mw.GetUser(r)
	if !ok {
		unauthorized(w)
		return
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
		return
	}

	secret, err := h.newKey()
	if err != nil {
		internalError(w, "creating api key", err)
		return
	}

	now := h.now().UTC()
	owner := user.ID
	key := &models.APIKey{
		ID:                uuid.New(),
		UserID:            &owner,
		Name:              req.Name,
		Type:              models.KeyTypeDevelopment,
		Key:               secret,
		LimitMonthlyUsage: false,
		MonthlyLimit:      models.DefaultMonthlyLimit,
		UsageCount:        0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Type != nil {
		key.Type = *req.Type
	}
	if req.LimitMonthlyUsage != nil {
		key.LimitMonthlyUsage = *req.LimitMonthlyUsage
	}
	if req.MonthlyLimit != nil {
		key.MonthlyLimit = *req.MonthlyLimit
	}

	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "Generated key collided, please retry", nil)
			return
		}
		internalError(w, "creating api key", err)
		return
	}
	response.Created(w, key)
}

func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	key, err := h.store.GetAPIKey(r.Context(), id, user)
	if err != nil {
		h.keyError(w, "getting api key", err)
		return
	}
	response.JSON(w, key)
}

func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
		return
	}

	key, err := h.store.UpdateAPIKey(r.Context(), id, user, models.APIKeyPatch{
		Name:              req.Name,
		Type:              req.Type,
		LimitMonthlyUsage: req.LimitMonthlyUsage,
		MonthlyLimit:      req.MonthlyLimit,
	})
	if err != nil {
		h.keyError(w, "updating api key", err)
		return
	}
	response.JSON(w, key)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteAPIKey(r.Context(), id, user); err != nil {
		h.keyError(w, "deleting api key", err)
		return
	}
	response.JSON(w, map[string]string{"message": "API key deleted successfully"})
}

func (h *APIKeyHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	user, ok := mw.GetUser(r)
	if !ok {
		unauthorized(w)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_KEY_ID", "Invalid API key ID format", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return user.ID, id, true
}

func (h *APIKeyHandler) keyError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found", nil)
		return
	}
	internalError(w, op, err)
}

func unauthorized(w http.ResponseWriter) {
	response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
}

func internalError(w http.ResponseWriter, op string, err error) {
	slog.Error(op, "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}
