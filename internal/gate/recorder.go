package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kiranshivaraju/dandi/internal/store"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// ErrCapacityExhausted is returned by a strict Recorder when another request
// consumed the last unit between the capacity check and the increment.
var ErrCapacityExhausted = errors.New("usage capacity exhausted")

// Mode selects how usage is persisted.
type Mode string

const (
	// ModeAdvisory writes usageCount+1 as read by the gate. Concurrent
	// requests may overshoot the monthly limit.
	ModeAdvisory Mode = "advisory"
	// ModeStrict increments in a single conditional statement, so the
	// persisted count never exceeds the limit.
	ModeStrict Mode = "strict"
)

// Recorder persists one unit of usage for a key that passed the capacity
// check and returns the new usage count.
type Recorder interface {
	RecordUsage(ctx context.Context, key *models.APIKey) (int, error)
}

// UsageWriter is the persistence a StoreRecorder needs.
type UsageWriter interface {
	RecordAPIKeyUsage(ctx context.Context, key string, usageCount int, at time.Time) error
	ConsumeAPIKeyUsage(ctx context.Context, key string, at time.Time) (int, error)
}

type StoreRecorder struct {
	writer UsageWriter
	mode   Mode
	now    func() time.Time
}

func NewRecorder(writer UsageWriter, mode Mode) *StoreRecorder {
	if mode != ModeStrict {
		mode = ModeAdvisory
	}
	return &StoreRecorder{writer: writer, mode: mode, now: time.Now}
}

// WithClock replaces the timestamp source used for last_used.
func (r *StoreRecorder) WithClock(now func() time.Time) *StoreRecorder {
	r.now = now
	return r
}

func (r *StoreRecorder) Mode() Mode { return r.mode }

func (r *StoreRecorder) RecordUsage(ctx context.Context, key *models.APIKey) (int, error) {
	at := r.now().UTC()

	if r.mode == ModeStrict {
		n, err := r.writer.ConsumeAPIKeyUsage(ctx, key.Key, at)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, store.ErrLimitReached):
			return 0, ErrCapacityExhausted
		case errors.Is(err, store.ErrNotFound):
			return 0, ErrKeyNotFound
		default:
			return 0, fmt.Errorf("consume usage: %w", err)
		}
	}

	// A write that matches no row is a persistence failure here, not a
	// missing key: the record was found and passed the capacity check.
	next := key.UsageCount + 1
	if err := r.writer.RecordAPIKeyUsage(ctx, key.Key, next, at); err != nil {
		return 0, fmt.Errorf("record usage: %w", err)
	}
	return next, nil
}
