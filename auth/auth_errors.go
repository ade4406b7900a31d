package auth

import (
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
)

// DefaultLoginError is shown when a failed sign-in carries no server detail.
const DefaultLoginError = "Unable to sign in"

// AuthenticationError is returned by Login when the credential exchange
// fails. Message is the server's detail or DefaultLoginError; it matches
// errors.ErrAuthenticationFailed and wraps the underlying failure.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{interrors.ErrAuthenticationFailed}
	}
	return []error{interrors.ErrAuthenticationFailed, e.Err}
}
