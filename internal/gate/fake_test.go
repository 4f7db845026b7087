package gate_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dandi/internal/store"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// memStore is an in-memory stand-in for the api_keys table.
type memStore struct {
	mu         sync.Mutex
	rows       map[string][]*models.APIKey
	lookupErr  error
	recordErr  error
	consumeErr error
	writes     int
	lastUsedAt time.Time
}

func newMemStore(keys ...*models.APIKey) *memStore {
	m := &memStore{rows: map[string][]*models.APIKey{}}
	for _, k := range keys {
		m.rows[k.Key] = append(m.rows[k.Key], k)
	}
	return m
}

func (m *memStore) GetAPIKeysByKey(_ context.Context, key string) ([]*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	var out []*models.APIKey
	for _, k := range m.rows[key] {
		c := *k
		out = append(out, &c)
	}
	return out, nil
}

func (m *memStore) RecordAPIKeyUsage(_ context.Context, key string, usageCount int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	rows := m.rows[key]
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	rows[0].UsageCount = usageCount
	rows[0].LastUsed = &at
	m.writes++
	m.lastUsedAt = at
	return nil
}

func (m *memStore) ConsumeAPIKeyUsage(_ context.Context, key string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeErr != nil {
		return 0, m.consumeErr
	}
	rows := m.rows[key]
	if len(rows) == 0 {
		return 0, store.ErrNotFound
	}
	k := rows[0]
	if k.LimitMonthlyUsage && k.UsageCount >= k.MonthlyLimit {
		return 0, store.ErrLimitReached
	}
	k.UsageCount++
	k.LastUsed = &at
	m.writes++
	m.lastUsedAt = at
	return k.UsageCount, nil
}

func (m *memStore) usage(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key][0].UsageCount
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func limitedKey(key string, limit, usage int) *models.APIKey {
	return &models.APIKey{
		ID:                uuid.New(),
		Name:              "test key",
		Type:              models.KeyTypeDevelopment,
		Key:               key,
		LimitMonthlyUsage: true,
		MonthlyLimit:      limit,
		UsageCount:        usage,
		CreatedAt:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func unlimitedKey(key string, usage int) *models.APIKey {
	k := limitedKey(key, models.DefaultMonthlyLimit, usage)
	k.LimitMonthlyUsage = false
	return k
}
