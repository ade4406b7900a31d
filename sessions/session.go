package sessions

import (
	"encoding/json"

	"github.com/jrsteele09/cirota-portal/users"
	"github.com/pkg/errors"
)

// TokenPair is the credential pair issued by /api/auth/google and
// /api/auth/refresh. Both values are opaque to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken,omitempty"`  // Sent as "Authorization: Bearer <access token>"
	RefreshToken string `json:"refreshToken,omitempty"` // Only ever sent to /api/auth/refresh
}

// Session is the persisted authentication state: the principal together with
// the tokens that authenticate it. It is always written and replaced as a
// whole.
//
// A Session with Tokens but no User is pending; it has to be validated against
// /api/auth/me before it counts as authenticated.
type Session struct {
	User   *users.User `json:"user"`
	Tokens *TokenPair  `json:"tokens"`
}

// AccessToken returns the access token, or "" when there is none.
func (s *Session) AccessToken() string {
	if s == nil || s.Tokens == nil {
		return ""
	}
	return s.Tokens.AccessToken
}

// RefreshToken returns the refresh token, or "" when there is none.
func (s *Session) RefreshToken() string {
	if s == nil || s.Tokens == nil {
		return ""
	}
	return s.Tokens.RefreshToken
}

// HasTokens reports whether the session carries an access token.
func (s *Session) HasTokens() bool {
	return s.AccessToken() != ""
}

// Pending reports whether the session has tokens but no confirmed user.
func (s *Session) Pending() bool {
	return s.HasTokens() && !s.User.Valid()
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{User: s.User.Clone()}
	if s.Tokens != nil {
		tokens := *s.Tokens
		c.Tokens = &tokens
	}
	return c
}

// Marshal serialises the session record.
func Marshal(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("[sessions Marshal] nil session")
	}
	return json.Marshal(s)
}

// Unmarshal parses a session record. A record that decodes but holds neither
// tokens nor a user is reported as an error so callers treat it as absent.
func Unmarshal(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "[sessions Unmarshal] decoding session record")
	}
	if s.Tokens == nil && s.User == nil {
		return nil, errors.New("[sessions Unmarshal] empty session record")
	}
	return &s, nil
}
