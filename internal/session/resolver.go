package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dandi/internal/store"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// UserStore is the persistence a Resolver needs.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
}

// Resolver turns a bearer token into the signed-in user. A token whose
// subject is a known user id resolves directly; otherwise the user is looked
// up by email and created on first sign-in.
type Resolver struct {
	tokens *Manager
	users  UserStore
}

func NewResolver(tokens *Manager, users UserStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if id, err := uuid.Parse(claims.Subject); err == nil {
		u, err := r.users.GetUser(ctx, id)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get session user: %w", err)
		}
	}

	if claims.Email == "" {
		return nil, ErrInvalidToken
	}

	u, err := r.users.GetUserByEmail(ctx, claims.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get session user by email: %w", err)
	}

	u, err = r.users.UpsertUser(ctx, &models.User{
		Email:    claims.Email,
		Name:     optional(claims.Name),
		Image:    optional(claims.Picture),
		Provider: claims.Provider,
	})
	if err != nil {
		return nil, fmt.Errorf("create session user: %w", err)
	}
	return u, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
