// Package main is the entrypoint for the Dandi API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/dandi/internal/ai"
	"github.com/kiranshivaraju/dandi/internal/api"
	"github.com/kiranshivaraju/dandi/internal/api/handler"
	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/cache"
	"github.com/kiranshivaraju/dandi/internal/config"
	"github.com/kiranshivaraju/dandi/internal/gate"
	"github.com/kiranshivaraju/dandi/internal/github"
	"github.com/kiranshivaraju/dandi/internal/logging"
	"github.com/kiranshivaraju/dandi/internal/session"
	"github.com/kiranshivaraju/dandi/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config; fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"env", cfg.Server.Env,
		"usage_enforcement", cfg.Usage.Enforcement,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create AI provider
	aiProvider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	if c, ok := aiProvider.(io.Closer); ok {
		defer c.Close()
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name(), "model", aiProvider.Model())

	// 6. Create store, gate and sessions
	pgStore := store.NewPostgresStore(pool)
	keys := gate.NewKeyStore(pgStore)
	apiGate := gate.New(keys, gate.MonthlyLimiter{},
		gate.NewRecorder(pgStore, gate.Mode(cfg.Usage.Enforcement)), logger)

	tokens, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	// 7. Summarizer: GitHub behind the Redis cache, then the AI provider
	gh := github.NewCachedClient(
		github.NewHTTPClient(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout),
		redisCache, cfg.GitHub.CacheTTL, logger)
	summaries := ai.NewSummaryService(aiProvider, gh, cfg.AI.InferenceTimeout, logger)

	// 8. Build router with dependencies
	apiKeys := handler.NewAPIKeyHandler(pgStore)
	router := api.NewRouter(api.Dependencies{
		APIKeyAuth:  mw.NewAPIKeyAuth(apiGate),
		SessionAuth: mw.NewSessionAuth(session.NewResolver(tokens, pgStore)),
		RateLimit:   mw.NewRateLimit(redisCache, cfg.Usage.RateLimitPerMinute),
		Logger:      logger,

		HealthHandler:       healthHandler(pgStore, redisCache),
		ValidateKeyHandler:  handler.NewValidateKeyHandler(keys, pgStore),
		AuthenticateHandler: handler.NewAuthenticateHandler(),
		SummarizeHandler:    handler.NewSummarizeHandler(summaries),

		ListKeysHandler:  apiKeys.List,
		CreateKeyHandler: apiKeys.Create,
		GetKeyHandler:    apiKeys.Get,
		UpdateKeyHandler: apiKeys.Update,
		DeleteKeyHandler: apiKeys.Delete,
		ListUsersHandler: handler.NewListUsersHandler(pgStore),
	})

	// 9. Start HTTP server
	srv := newServer(cfg.Server, cfg.AI.InferenceTimeout, router)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newServer sizes the write timeout so a summary that runs to the inference
// deadline can still be written.
func newServer(cfg config.ServerConfig, inferenceTimeout time.Duration, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: inferenceTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database and cache connectivity.
func healthHandler(db, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
