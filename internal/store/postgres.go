package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

const apiKeyColumns = `id, user_id, name, type, key, limit_monthly_usage, monthly_limit, usage_count,
	last_used, created_at, updated_at`

const userColumns = `id, email, name, image, provider, provider_id, created_at, updated_at, last_login`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpsertUser creates the user or, if the email already exists, refreshes its
// profile fields and last_login. Nil profile fields keep their stored value.
func (s *PostgresStore) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	id := user.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	provider := user.Provider
	if provider == "" {
		provider = "google"
	}

	u, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, image, provider, provider_id, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
		 ON CONFLICT (email) DO UPDATE SET
		   name = COALESCE(EXCLUDED.name, users.name),
		   image = COALESCE(EXCLUDED.image, users.image),
		   last_login = NOW(),
		   updated_at = NOW()
		 RETURNING `+userColumns,
		id, user.Email, user.Name, user.Image, provider, user.ProviderID))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- API Keys: gate ---

func (s *PostgresStore) GetAPIKeysByKey(ctx context.Context, key string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("get api keys by key: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RecordAPIKeyUsage writes an already computed usage count. It is a plain
// update by key; concurrent callers may overwrite each other's count.
func (s *PostgresStore) RecordAPIKeyUsage(ctx context.Context, key string, usageCount int, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET usage_count = $2, last_used = $3, updated_at = NOW() WHERE key = $1`,
		key, usageCount, at)
	if err != nil {
		return fmt.Errorf("record api key usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeAPIKeyUsage increments usage_count in a single conditional statement
// and returns the new count. It returns ErrLimitReached when the key is
// limited and already at its ceiling, and ErrNotFound when the key is gone.
func (s *PostgresStore) ConsumeAPIKeyUsage(ctx context.Context, key string, at time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`UPDATE api_keys SET usage_count = usage_count + 1, last_used = $2, updated_at = NOW()
		 WHERE key = $1 AND (NOT limit_monthly_usage OR usage_count < monthly_limit)
		 RETURNING usage_count`, key, at).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("consume api key usage: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM api_keys WHERE key = $1)`, key).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check api key exists: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrLimitReached
}

func (s *PostgresStore) TouchAPIKey(ctx context.Context, key string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used = $2, updated_at = NOW() WHERE key = $1`, key, at)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}

// --- API Keys: dashboard ---

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, type, key, limit_monthly_usage, monthly_limit, usage_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		key.ID, key.UserID, key.Name, key.Type, key.Key, key.LimitMonthlyUsage, key.MonthlyLimit,
		key.UsageCount, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.APIKey, error) {
	k, err := scanAPIKey(s.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys := []*models.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID, patch models.APIKeyPatch) (*models.APIKey, error) {
	k, err := scanAPIKey(s.pool.QueryRow(ctx,
		`UPDATE api_keys SET
		   name = $3,
		   type = COALESCE($4, type),
		   limit_monthly_usage = COALESCE($5, limit_monthly_usage),
		   monthly_limit = COALESCE($6, monthly_limit),
		   updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+apiKeyColumns,
		id, userID, patch.Name, patch.Type, patch.LimitMonthlyUsage, patch.MonthlyLimit))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update api key: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) DeleteAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.Type, &k.Key, &k.LimitMonthlyUsage, &k.MonthlyLimit,
		&k.UsageCount, &k.LastUsed, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.Provider, &u.ProviderID,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
