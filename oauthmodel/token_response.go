package oauthmodel

import (
	"github.com/jrsteele09/cirota-portal/sessions"
	"github.com/jrsteele09/cirota-portal/users"
)

// TokenResponse is returned by /api/auth/refresh.
type TokenResponse struct {
	// AccessToken is sent as "Authorization: Bearer <access_token>".
	// Lifespan: short-lived (server default 30 minutes)
	AccessToken string `json:"access_token"`

	// RefreshToken is exchanged at /api/auth/refresh for a new pair.
	// Lifespan: longer-lived (server default 24 times the access token)
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type,omitempty"`
}

// Pair converts the response into the pair stored in a session.
func (tr TokenResponse) Pair() *sessions.TokenPair {
	return &sessions.TokenPair{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}
}

// AuthResponse is returned by /api/auth/google.
type AuthResponse struct {
	TokenResponse
	User *users.User `json:"user"`
}
