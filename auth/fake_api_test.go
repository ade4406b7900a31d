package auth_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/cirota-portal/auth"
	"github.com/jrsteele09/cirota-portal/client"
	"github.com/jrsteele09/cirota-portal/oauthmodel"
	"github.com/jrsteele09/cirota-portal/token"
	"github.com/jrsteele09/cirota-portal/users"
)

var _ auth.AuthAPI = (*scriptedAPI)(nil)

// scriptedAPI answers from per-test functions and records every call. Me is
// handed the access token currently in the holder, which is what the real
// client would send.
type scriptedAPI struct {
	holder *token.Holder

	exchange func(ctx context.Context, googleToken string) (*oauthmodel.AuthResponse, error)
	refresh  func(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error)
	me       func(ctx context.Context, accessToken string) (*users.User, error)

	lock  sync.Mutex
	calls []string
}

func (s *scriptedAPI) record(call string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls = append(s.calls, call)
}

func (s *scriptedAPI) Calls() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *scriptedAPI) ExchangeGoogleToken(ctx context.Context, googleToken string) (*oauthmodel.AuthResponse, error) {
	s.record("google " + googleToken)
	if s.exchange == nil {
		return nil, unauthorized("Invalid Google token")
	}
	return s.exchange(ctx, googleToken)
}

func (s *scriptedAPI) RefreshTokens(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error) {
	s.record("refresh " + refreshToken)
	if s.refresh == nil {
		return nil, unauthorized("Invalid or expired token")
	}
	return s.refresh(ctx, refreshToken)
}

func (s *scriptedAPI) Me(ctx context.Context) (*users.User, error) {
	accessToken := s.holder.AccessToken()
	s.record("me " + accessToken)
	if s.me == nil {
		return nil, unauthorized("Not authenticated")
	}
	return s.me(ctx, accessToken)
}

func unauthorized(detail string) error {
	return &client.APIError{Method: http.MethodGet, Path: "/api/auth", StatusCode: http.StatusUnauthorized, Detail: detail}
}

func authResponse(access, refresh string, user *users.User) *oauthmodel.AuthResponse {
	return &oauthmodel.AuthResponse{
		TokenResponse: oauthmodel.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"},
		User:          user,
	}
}

func tokenResponse(access, refresh string) *oauthmodel.TokenResponse {
	return &oauthmodel.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}
}

// meAccepting answers Me with user for exactly the given access token.
func meAccepting(accessToken string, user *users.User) func(context.Context, string) (*users.User, error) {
	return func(_ context.Context, got string) (*users.User, error) {
		if got != accessToken {
			return nil, unauthorized("Invalid or expired token")
		}
		return user.Clone(), nil
	}
}
