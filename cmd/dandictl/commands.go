package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kiranshivaraju/dandi/internal/config"
	"github.com/kiranshivaraju/dandi/internal/logging"
	"github.com/kiranshivaraju/dandi/internal/session"
	"github.com/kiranshivaraju/dandi/internal/store"
	"github.com/kiranshivaraju/dandi/pkg/models"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dandictl",
		Short:         "Operator tooling for the Dandi API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newTokenCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadTooling()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if dir == "" {
				dir = cfg.Database.MigrationsDir
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level)

			if err := store.RunMigrations(cfg.Database.URL, dir); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations applied", "dir", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default $DATABASE_MIGRATIONS_DIR or ./migrations)")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a session token for a user, creating the user if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("--email must not be empty")
			}

			cfg, err := config.LoadTooling()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tokens, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
			if err != nil {
				return fmt.Errorf("create session manager: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := store.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			return issueToken(ctx, cmd.OutOrStdout(), store.NewPostgresStore(pool), tokens, email, name)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name for a new user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// userUpserter is the part of the store issueToken needs.
type userUpserter interface {
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
}

func issueToken(ctx context.Context, out io.Writer, users userUpserter, tokens *session.Manager, email, name string) error {
	user := &models.User{Email: email, Provider: "cli"}
	if name != "" {
		user.Name = &name
	}
	u, err := users.UpsertUser(ctx, user)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	token, err := tokens.Issue(u)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(out, token)
	return nil
}
