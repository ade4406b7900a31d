package portal

import (
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
)

// Views a session can be sent to.
const (
	ViewLogin = "/login"
	ViewUser  = "/user"
	ViewAdmin = "/admin"
)

// Viewer is the session state the guards decide on. auth.Snapshot and
// *auth.SessionManager both satisfy it.
type Viewer interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// HomeFor returns the view a session lands on: the login view when signed
// out, otherwise the admin or customer view.
func HomeFor(v Viewer) string {
	switch {
	case v == nil || !v.IsAuthenticated():
		return ViewLogin
	case v.IsAdmin():
		return ViewAdmin
	default:
		return ViewUser
	}
}

// RequireUser admits signed-in customers. Admins are turned away with
// ErrUserOnly; the customer views are not theirs.
func RequireUser(v Viewer) error {
	if v == nil || !v.IsAuthenticated() {
		return interrors.ErrNotAuthenticated
	}
	if v.IsAdmin() {
		return interrors.ErrUserOnly
	}
	return nil
}

// RequireAdmin admits signed-in admins only.
func RequireAdmin(v Viewer) error {
	if v == nil || !v.IsAuthenticated() {
		return interrors.ErrNotAuthenticated
	}
	if !v.IsAdmin() {
		return interrors.ErrAdminRequired
	}
	return nil
}

// RedirectFor maps a guard error to the view to go to instead, or "" when
// err is not a guard error.
func RedirectFor(err error) string {
	switch {
	case interrors.Is(err, interrors.ErrNotAuthenticated):
		return ViewLogin
	case interrors.Is(err, interrors.ErrUserOnly):
		return ViewAdmin
	case interrors.Is(err, interrors.ErrAdminRequired):
		return ViewUser
	default:
		return ""
	}
}
