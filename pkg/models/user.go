package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a dashboard account. Users own API keys.
type User struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	Email      string    `db:"email"       json:"email"`
	Name       *string   `db:"name"        json:"name"`
	Image      *string   `db:"image"       json:"image,omitempty"`
	Provider   string    `db:"provider"    json:"provider"`
	ProviderID *string   `db:"provider_id" json:"-"`
	CreatedAt  time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updatedAt"`
	LastLogin  time.Time `db:"last_login"  json:"lastLogin"`
}
