package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/dandi/internal/cache"
)

// CachedClient serves README and metadata lookups from the cache before
// asking the wrapped Client. Cache failures are logged and otherwise ignored.
type CachedClient struct {
	inner  Client
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedClient(inner Client, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (c *CachedClient) GetReadme(ctx context.Context, owner, repo string) (*Readme, error) {
	key := cache.ReadmeKey(owner, repo)

	var cached Readme
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	readme, err := c.inner.GetReadme(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, readme)
	return readme, nil
}

func (c *CachedClient) GetRepoMetadata(ctx context.Context, owner, repo string) (*RepoMetadata, error) {
	key := cache.RepoMetadataKey(owner, repo)

	var cached RepoMetadata
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	meta, err := c.inner.GetRepoMetadata(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, meta)
	return meta, nil
}

func (c *CachedClient) load(ctx context.Context, key string, dst any) bool {
	found, err := cache.GetJSON(ctx, c.cache, key, dst)
	if err != nil {
		c.logger.Warn("github cache read failed", "key", key, "error", err)
		return false
	}
	return found
}

func (c *CachedClient) store(ctx context.Context, key string, v any) {
	if c.ttl <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, c.cache, key, v, c.ttl); err != nil {
		c.logger.Warn("github cache write failed", "key", key, "error", err)
	}
}

var _ Client = (*CachedClient)(nil)
