// Package session issues and verifies dashboard session tokens and resolves
// them to users.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/dandi/pkg/models"
	"golang.org/x/crypto/hkdf"
)

const (
	issuer     = "dandi"
	keyInfo    = "dandi session signing key v1"
	signingLen = 32
)

var (
	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("session expired")

	// ErrInvalidToken is returned when the token is invalid for any reason
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims are the JWT claims of a session token. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Manager signs and verifies HS256 session tokens with a key derived from
// the configured secret.
type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	key := make([]byte, signingLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	return &Manager{key: key, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue returns a signed token for user valid for the manager's TTL.
func (m *Manager) Issue(user *models.User) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		Email:    user.Email,
		Name:     deref(user.Name),
		Picture:  deref(user.Image),
		Provider: user.Provider,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Verify parses and validates a token. Expiry is checked against the
// manager's clock.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if !claims.VerifyExpiresAt(m.now(), true) {
		return nil, ErrTokenExpired
	}
	if !claims.VerifyIssuer(issuer, true) {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" && claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
