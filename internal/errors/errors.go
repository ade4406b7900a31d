package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal client
var (
	// Authentication errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionExpired       = errors.New("session expired")
	ErrNoSession            = errors.New("no session")

	// Authorization errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAdminRequired    = errors.New("admin access required")
	ErrUserOnly         = errors.New("view is for customers only")

	// Transport errors
	ErrInvalidResponse = errors.New("invalid response")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
