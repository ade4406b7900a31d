package client

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const headerRequestID = "X-Request-ID"

// bearerTransport attaches the current access token to each request. A
// source without a token leaves the request unauthenticated, so public
// endpoints keep working while signed out.
type bearerTransport struct {
	base      http.RoundTripper
	source    oauth2.TokenSource
	userAgent string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	r.Header.Del("Authorization")
	if t.source != nil {
		if tok, err := t.source.Token(); err == nil && tok.AccessToken != "" {
			tok.SetAuthHeader(r)
		}
	}
	if r.Header.Get(headerRequestID) == "" {
		r.Header.Set(headerRequestID, uuid.NewString())
	}
	if t.userAgent != "" {
		r.Header.Set("User-Agent", t.userAgent)
	}

	return t.transport().RoundTrip(r)
}

func (t *bearerTransport) transport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}
