package fakeapi

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/cirota-portal/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type claims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
	TokenType string `json:"token_type"`
	jwtlib.RegisteredClaims
}

// tokenIssuer signs HS256 tokens the way the portal backend does: both tokens
// carry the user claims and differ in token_type and lifetime.
type tokenIssuer struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

func (ti *tokenIssuer) issue(user *users.User, tokenType string) (string, string, error) {
	expiry := ti.accessExpiry
	if tokenType == tokenTypeRefresh {
		expiry = ti.refreshExpiry
	}
	now := ti.now()
	id := uuid.NewString()

	c := claims{
		UserID:    user.ID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(expiry)),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(ti.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, id, nil
}

// parse verifies raw. An empty tokenType accepts either kind, as the
// backend's bearer dependency does.
func (ti *tokenIssuer) parse(raw, tokenType string) (*claims, error) {
	var c claims
	_, err := jwtlib.ParseWithClaims(raw, &c, func(t *jwtlib.Token) (any, error) {
		return ti.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(ti.now))
	if err != nil {
		return nil, err
	}
	if tokenType != "" && c.TokenType != tokenType {
		return nil, fmt.Errorf("expected %s token, got %q", tokenType, c.TokenType)
	}
	return &c, nil
}
