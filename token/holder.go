package token

import (
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by Holder.Token when no access token is installed.
var ErrNoToken = errors.New("no access token installed")

var _ oauth2.TokenSource = (*Holder)(nil)

// Holder is the slot holding the access token attached to outbound requests.
// The session manager writes it; the request layer reads it through the
// oauth2.TokenSource interface on every call. The value is not validated.
type Holder struct {
	accessToken string
	lock        sync.RWMutex
}

// NewHolder returns a holder with an optional initial token.
func NewHolder(accessToken string) *Holder {
	return &Holder{accessToken: accessToken}
}

// Set installs accessToken; "" clears the slot.
func (h *Holder) Set(accessToken string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.accessToken = accessToken
}

// AccessToken returns the installed token, or "".
func (h *Holder) AccessToken() string {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.accessToken
}

// Token implements oauth2.TokenSource. The returned token never expires on
// the client; expiry is discovered when the server rejects it.
func (h *Holder) Token() (*oauth2.Token, error) {
	accessToken := h.AccessToken()
	if accessToken == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}
