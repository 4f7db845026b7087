package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrLimitReached is returned by ConsumeAPIKeyUsage when the key exists but
// has no monthly capacity left at the moment of the update.
var ErrLimitReached = errors.New("monthly usage limit reached")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// GetAPIKeysByKey returns every row whose key equals the given string.
	// The unique constraint means callers should see zero or one row.
	GetAPIKeysByKey(ctx context.Context, key string) ([]*models.APIKey, error)
	RecordAPIKeyUsage(ctx context.Context, key string, usageCount int, at time.Time) error
	ConsumeAPIKeyUsage(ctx context.Context, key string, at time.Time) (int, error)
	TouchAPIKey(ctx context.Context, key string, at time.Time) error

	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	UpdateAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID, patch models.APIKeyPatch) (*models.APIKey, error)
	DeleteAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}
