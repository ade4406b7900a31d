package auth

import (
	"context"

	"github.com/jrsteele09/cirota-portal/client"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/jrsteele09/cirota-portal/oauthmodel"
	"github.com/jrsteele09/cirota-portal/users"
	"github.com/pkg/errors"
)

const (
	RouteAuthGoogle  = "/api/auth/google"
	RouteAuthRefresh = "/api/auth/refresh"
	RouteAuthMe      = "/api/auth/me"
)

// AuthAPI is the part of the server API the session manager talks to.
type AuthAPI interface {
	// ExchangeGoogleToken trades a Google credential for a token pair and the user.
	ExchangeGoogleToken(ctx context.Context, googleToken string) (*oauthmodel.AuthResponse, error)

	// RefreshTokens trades a refresh token for a new pair.
	RefreshTokens(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error)

	// Me returns the user the installed access token belongs to.
	Me(ctx context.Context) (*users.User, error)
}

var _ AuthAPI = (*HTTPAuthAPI)(nil)

// HTTPAuthAPI implements AuthAPI over the request layer. Which access token
// /api/auth/me is called with is decided by the client's token source.
type HTTPAuthAPI struct {
	client *client.Client
}

func NewAuthAPI(c *client.Client) *HTTPAuthAPI {
	return &HTTPAuthAPI{client: c}
}

func (a *HTTPAuthAPI) ExchangeGoogleToken(ctx context.Context, googleToken string) (*oauthmodel.AuthResponse, error) {
	var resp oauthmodel.AuthResponse
	if err := a.client.Post(ctx, RouteAuthGoogle, oauthmodel.GoogleAuthRequest{GoogleToken: googleToken}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.Wrap(interrors.ErrInvalidResponse, "[ExchangeGoogleToken] no access token in response")
	}
	return &resp, nil
}

func (a *HTTPAuthAPI) RefreshTokens(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error) {
	var resp oauthmodel.TokenResponse
	if err := a.client.Post(ctx, RouteAuthRefresh, oauthmodel.RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.Wrap(interrors.ErrInvalidResponse, "[RefreshTokens] no access token in response")
	}
	return &resp, nil
}

func (a *HTTPAuthAPI) Me(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := a.client.Get(ctx, RouteAuthMe, nil, &user); err != nil {
		return nil, err
	}
	if !user.Valid() {
		return nil, errors.Wrap(interrors.ErrInvalidResponse, "[Me] response has no user id")
	}
	return &user, nil
}
