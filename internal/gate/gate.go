// Package gate authenticates API-key callers and accounts for their monthly usage.
//
// A request moves through a fixed sequence: presence check, lookup, capacity
// check, usage increment. Each step can end the request with a Failure; only a
// failed increment is tolerated, in which case the request is still authorized
// and the reported usage is computed from the record that was read.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/dandi/pkg/models"
)

// Authenticator is what HTTP middleware depends on.
type Authenticator interface {
	Authenticate(ctx context.Context, presented string) Result
}

type Gate struct {
	keys     KeyStore
	limiter  Limiter
	recorder Recorder
	logger   *slog.Logger
}

func New(keys KeyStore, limiter Limiter, recorder Recorder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{keys: keys, limiter: limiter, recorder: recorder, logger: logger}
}

// Authenticate runs the gate for one request. It is not safe to retry: every
// Authorized result consumes one unit of the key's quota.
//
// In strict mode a key deleted between lookup and increment yields InvalidKey.
// In advisory mode the same race is a tolerated persistence failure.
func (g *Gate) Authenticate(ctx context.Context, presented string) Result {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return MissingKey{}
	}

	key, err := g.keys.Find(ctx, presented)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return InvalidKey{}
	case errors.Is(err, ErrConsistency):
		g.logger.Error("api key consistency failure", "error", err)
		return ValidationError{Err: err}
	case err != nil:
		g.logger.Error("api key lookup failed", "error", err)
		return ValidationError{Err: err}
	}

	capacity := g.limiter.CheckCapacity(key)
	if !capacity.Allowed {
		return LimitExceeded{MonthlyLimit: key.MonthlyLimit}
	}

	return g.record(ctx, key)
}

func (g *Gate) record(ctx context.Context, key *models.APIKey) Result {
	current, err := g.recorder.RecordUsage(ctx, key)
	switch {
	case err == nil:
		return Authorized{
			Key:        key,
			Usage:      UsageInfo{CurrentUsage: current, RemainingUsage: RemainingAfter(key, current)},
			Accounting: AccountingRecorded,
		}
	case errors.Is(err, ErrCapacityExhausted):
		return LimitExceeded{MonthlyLimit: key.MonthlyLimit}
	case errors.Is(err, ErrKeyNotFound):
		return InvalidKey{}
	}

	g.logger.Warn("api key usage not persisted",
		"key_id", key.ID,
		"usage_count", key.UsageCount,
		"error", err,
	)
	current = key.UsageCount + 1
	return Authorized{
		Key:           key,
		Usage:         UsageInfo{CurrentUsage: current, RemainingUsage: RemainingAfter(key, current)},
		Accounting:    AccountingPersistenceFailure,
		AccountingErr: err,
	}
}
