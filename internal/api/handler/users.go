package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

type UserLister interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type userSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// NewListUsersHandler returns the handler for GET /api/users.
func NewListUsersHandler(users UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.ListUsers(r.Context())
		if err != nil {
			internalError(w, "listing users", err)
			return
		}

		out := make([]userSummary, 0, len(list))
		for _, u := range list {
			out = append(out, userSummary{
				ID:        u.ID,
				Email:     u.Email,
				Name:      u.Name,
				Provider:  u.Provider,
				CreatedAt: u.CreatedAt,
				LastLogin: u.LastLogin,
			})
		}
		response.JSON(w, map[string]any{"users": out, "count": len(out)})
	}
}
