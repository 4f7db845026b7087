package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/dandi/pkg/models"
)

var (
	// ErrKeyNotFound means no record matches the presented key.
	ErrKeyNotFound = errors.New("api key not found")
	// ErrConsistency means storage returned more than one record for a key.
	ErrConsistency = errors.New("api key lookup returned more than one record")
)

// KeyStore finds the record for a presented key. It never mutates.
type KeyStore interface {
	Find(ctx context.Context, key string) (*models.APIKey, error)
}

// KeyRows is the persistence lookup KeyStore is built on.
type KeyRows interface {
	GetAPIKeysByKey(ctx context.Context, key string) ([]*models.APIKey, error)
}

type rowKeyStore struct {
	rows KeyRows
}

// NewKeyStore returns a KeyStore that expects exactly zero or one row per key.
func NewKeyStore(rows KeyRows) KeyStore {
	return &rowKeyStore{rows: rows}
}

func (s *rowKeyStore) Find(ctx context.Context, key string) (*models.APIKey, error) {
	keys, err := s.rows.GetAPIKeysByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find api key: %w", err)
	}
	switch len(keys) {
	case 0:
		return nil, ErrKeyNotFound
	case 1:
		return keys[0], nil
	default:
		return nil, fmt.Errorf("%w: %d rows", ErrConsistency, len(keys))
	}
}
