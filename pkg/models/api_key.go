package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	KeyTypeDevelopment = "development"
	KeyTypeProduction  = "production"
)

// DefaultMonthlyLimit is applied when a key is created without an explicit limit.
const DefaultMonthlyLimit = 1000

// APIKey is a bearer key used by programmatic callers of the summarizer.
// The key string is globally unique and is the lookup key for the gate.
type APIKey struct {
	ID                uuid.UUID  `db:"id"                  json:"id"`
	UserID            *uuid.UUID `db:"user_id"             json:"userId,omitempty"`
	Name              string     `db:"name"                json:"name"`
	Type              string     `db:"type"                json:"type"`
	Key               string     `db:"key"                 json:"key"`
	LimitMonthlyUsage bool       `db:"limit_monthly_usage" json:"limitMonthlyUsage"`
	MonthlyLimit      int        `db:"monthly_limit"       json:"monthlyLimit"`
	UsageCount        int        `db:"usage_count"         json:"usageCount"`
	LastUsed          *time.Time `db:"last_used"           json:"lastUsed"`
	CreatedAt         time.Time  `db:"created_at"          json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at"          json:"updatedAt"`
}

// APIKeyPatch holds the mutable fields of an APIKey. Nil fields are left unchanged.
type APIKeyPatch struct {
	Name              string
	Type              *string
	LimitMonthlyUsage *bool
	MonthlyLimit      *int
}

// KeyData is the view of an APIKey returned to a caller that authenticated with it.
// It never includes the key string or the owner.
type KeyData struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	CreatedAt         time.Time `json:"createdAt"`
	UsageCount        int       `json:"usageCount"`
	MonthlyLimit      int       `json:"monthlyLimit"`
	LimitMonthlyUsage bool      `json:"limitMonthlyUsage"`
}

func (k *APIKey) Data() KeyData {
	return KeyData{
		ID:                k.ID,
		Name:              k.Name,
		Type:              k.Type,
		CreatedAt:         k.CreatedAt,
		UsageCount:        k.UsageCount,
		MonthlyLimit:      k.MonthlyLimit,
		LimitMonthlyUsage: k.LimitMonthlyUsage,
	}
}

// ValidKeyType reports whether t is a known key type.
func ValidKeyType(t string) bool {
	return t == KeyTypeDevelopment || t == KeyTypeProduction
}
