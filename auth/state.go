package auth

import "github.com/jrsteele09/cirota-portal/users"

// State is where the session manager is in the sign-in lifecycle.
type State int

const (
	// StateAnonymous: no access token.
	StateAnonymous State = iota
	// StatePending: tokens present but the user has not been confirmed by the server.
	StatePending
	// StateAuthenticated: tokens present and the user confirmed.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is the manager's published state. Loading and LastError are
// independent of State.
type Snapshot struct {
	State     State
	User      *users.User
	Loading   bool
	LastError string
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User.Valid()
}

func (s Snapshot) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin
}
