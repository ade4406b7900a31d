// Package googleauth obtains a Google ID token through the OAuth2
// authorization code flow with PKCE. The ID token is the credential the
// portal exchanges at /api/auth/google.
package googleauth

import (
	"context"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/cirota-portal/internal/config"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const DefaultIssuer = "https://accounts.google.com"

type Config struct {
	ClientID     string
	ClientSecret string
	Issuer       string // Default DefaultIssuer
	RedirectURL  string
	Scopes       []string // Default openid, email, profile
}

// ConfigFrom reads the Google client settings.
func ConfigFrom(c config.OAuthConfig) Config {
	return Config{
		ClientID:     c.GetGoogleClientID(),
		ClientSecret: c.GetGoogleClientSecret(),
		Issuer:       c.GetGoogleIssuer(),
		RedirectURL:  c.GetGoogleRedirectURL(),
		Scopes:       c.GetGoogleScopes(),
	}
}

// Flow is a configured Google sign-in.
type Flow struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	log          zerolog.Logger
}

// FlowOption defines a function type to modify the Flow instance.
type FlowOption func(*Flow)

func WithLogger(logger zerolog.Logger) FlowOption {
	return func(f *Flow) {
		f.log = logger
	}
}

// New discovers the issuer's endpoints and keys. Use oidc.ClientContext on
// ctx to discover with a specific http.Client.
func New(ctx context.Context, cfg Config, options ...FlowOption) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("[googleauth.New] client id is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("[googleauth.New] redirect url is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "[googleauth.New] discovering %s", cfg.Issuer)
	}

	f := &Flow{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		log:      log.Logger,
	}
	for _, opt := range options {
		opt(f)
	}
	return f, nil
}

// RedirectURL is where the browser is sent back to with the code.
func (f *Flow) RedirectURL() (*url.URL, error) {
	return url.Parse(f.oauth2Config.RedirectURL)
}

// NewState returns a fresh state parameter and PKCE verifier.
func NewState() (state, verifier string) {
	return uuid.NewString(), oauth2.GenerateVerifier()
}

// AuthCodeURL is the consent page URL for state, carrying the S256 challenge
// of verifier.
func (f *Flow) AuthCodeURL(state, verifier string) string {
	return f.oauth2Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange redeems code and returns the verified raw ID token.
func (f *Flow) Exchange(ctx context.Context, code, verifier string) (string, error) {
	tok, err := f.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", errors.Wrap(err, "[googleauth.Exchange] code exchange failed")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.Wrap(interrors.ErrInvalidResponse, "[googleauth.Exchange] no id_token in token response")
	}

	idToken, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", errors.Wrap(err, "[googleauth.Exchange] id_token verification failed")
	}
	f.log.Debug().Str("subject", idToken.Subject).Msg("Google sign-in completed")
	return rawIDToken, nil
}
