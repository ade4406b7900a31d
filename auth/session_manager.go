package auth

import (
	"context"
	"sync"

	"github.com/jrsteele09/cirota-portal/client"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/jrsteele09/cirota-portal/sessions"
	"github.com/jrsteele09/cirota-portal/token"
	"github.com/jrsteele09/cirota-portal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionManager owns the client's session: it signs in, signs out, checks
// the session against the server and silently swaps an expired access token
// for a new pair using the refresh token.
//
// The token holder is always updated before the request that depends on it.
// Every change to the session replaces the persisted record as a whole, so
// when validations race the last one to finish wins and the stored record is
// never a mix of old tokens and a new user. Login calls are not coalesced;
// callers serialise their own sign-in attempts.
type SessionManager struct {
	api    AuthAPI
	store  sessions.Store
	holder *token.Holder
	log    zerolog.Logger

	lock      sync.Mutex
	session   *sessions.Session
	epoch     uint64 // Incremented by Logout; work started in an older epoch is discarded
	loading   int
	lastError string
	listeners map[int]func(Snapshot)
	nextID    int
}

// SessionManagerOption defines a function type to modify the SessionManager instance.
type SessionManagerOption func(*SessionManager)

// WithLogger sets the logger (default: the global zerolog logger).
func WithLogger(logger zerolog.Logger) SessionManagerOption {
	return func(m *SessionManager) {
		m.log = logger
	}
}

// NewSessionManager restores the persisted session and installs its access
// token into holder. A restored session without a confirmed user is Pending
// until Start (or ValidateSession) resolves it.
func NewSessionManager(api AuthAPI, store sessions.Store, holder *token.Holder, options ...SessionManagerOption) (*SessionManager, error) {
	if api == nil {
		return nil, errors.New("[NewSessionManager] auth API is required")
	}
	if store == nil {
		return nil, errors.New("[NewSessionManager] session store is required")
	}
	if holder == nil {
		return nil, errors.New("[NewSessionManager] token holder is required")
	}

	m := &SessionManager{
		api:       api,
		store:     store,
		holder:    holder,
		log:       log.Logger,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range options {
		opt(m)
	}

	m.session = store.Load()
	if m.session != nil && !m.session.HasTokens() {
		m.log.Debug().Msg("Stored session has no access token, ignoring it")
		m.session = nil
	}
	m.holder.Set(m.session.AccessToken())

	return m, nil
}

// Start resolves a Pending session restored from storage. It is a no-op in
// every other state.
func (m *SessionManager) Start(ctx context.Context) State {
	if m.State() != StatePending {
		return m.State()
	}
	return m.ValidateSession(ctx)
}

// Login exchanges an external credential for a server session. The existing
// session is left untouched on failure, and the returned *AuthenticationError
// carries the message that is also recorded as LastError.
func (m *SessionManager) Login(ctx context.Context, credentialToken string) (*users.User, error) {
	epoch := m.begin(true)
	defer m.end()

	resp, err := m.api.ExchangeGoogleToken(ctx, credentialToken)
	if err != nil {
		message := client.Detail(err)
		if message == "" {
			message = DefaultLoginError
		}
		m.setError(message)
		m.log.Info().Err(err).Msg("[Login] credential rejected")
		return nil, &AuthenticationError{Message: message, Err: err}
	}

	next := &sessions.Session{User: resp.User.Clone(), Tokens: resp.Pair()}
	if !m.install(epoch, next) {
		return nil, &AuthenticationError{Message: DefaultLoginError, Err: interrors.ErrNoSession}
	}

	if next.Pending() {
		// The server did not say who we are; confirm before reporting success.
		if m.ValidateSession(ctx) != StateAuthenticated {
			m.setError(DefaultLoginError)
			return nil, &AuthenticationError{Message: DefaultLoginError, Err: interrors.ErrSessionExpired}
		}
	}
	return m.User(), nil
}

// ValidateSession checks the session against /api/auth/me. If the access
// token is rejected and a refresh token is held, the pair is refreshed once
// and the check retried with the new access token. Any unrecoverable failure
// signs out. Failures are never returned; the resulting State tells the
// outcome. Without an access token it returns immediately.
//
// A cancelled ctx abandons the attempt without signing out.
func (m *SessionManager) ValidateSession(ctx context.Context) State {
	current := m.current()
	if !current.HasTokens() {
		return m.State()
	}

	epoch := m.begin(false)
	defer m.end()

	user, err := m.api.Me(ctx)
	if err == nil {
		m.install(epoch, &sessions.Session{User: user, Tokens: current.Tokens})
		return m.State()
	}
	if m.abandoned(ctx, err) {
		return m.State()
	}

	refreshToken := current.RefreshToken()
	if refreshToken == "" {
		m.expire(epoch, "identity check failed and no refresh token is held", err)
		return m.State()
	}

	refreshed, err := m.api.RefreshTokens(ctx, refreshToken)
	if err != nil {
		if !m.abandoned(ctx, err) {
			m.expire(epoch, "refresh token rejected", err)
		}
		return m.State()
	}

	tokens := refreshed.Pair()
	if !m.installToken(epoch, tokens.AccessToken) {
		return m.State()
	}

	user, err = m.api.Me(ctx)
	if err != nil {
		if m.abandoned(ctx, err) {
			// Keep the pair the server just issued; the old one may no longer be accepted.
			m.install(epoch, &sessions.Session{User: current.User, Tokens: tokens})
			return m.State()
		}
		m.expire(epoch, "identity check failed after refresh", err)
		return m.State()
	}

	m.install(epoch, &sessions.Session{User: user, Tokens: tokens})
	m.log.Debug().Int("user_id", user.ID).Msg("Session refreshed")
	return m.State()
}

// RefreshSession forces a revalidation of the current session.
func (m *SessionManager) RefreshSession(ctx context.Context) State {
	return m.ValidateSession(ctx)
}

// Logout clears the user, the last error, the token holder and the persisted
// record. It is safe to call when already signed out.
func (m *SessionManager) Logout() {
	m.lock.Lock()
	m.epoch++
	m.clearLocked()
	m.lastError = ""
	snapshot := m.snapshotLocked()
	m.lock.Unlock()

	m.notify(snapshot)
}

// OnChange registers fn to be called with the new state after every change.
// The returned function removes it.
func (m *SessionManager) OnChange(fn func(Snapshot)) func() {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		delete(m.listeners, id)
	}
}

func (m *SessionManager) Snapshot() Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.snapshotLocked()
}

func (m *SessionManager) State() State {
	return m.Snapshot().State
}

// User returns a copy of the confirmed or stored user, or nil.
func (m *SessionManager) User() *users.User {
	return m.Snapshot().User
}

func (m *SessionManager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated()
}

func (m *SessionManager) IsAdmin() bool {
	return m.Snapshot().IsAdmin()
}

func (m *SessionManager) Loading() bool {
	return m.Snapshot().Loading
}

func (m *SessionManager) LastError() string {
	return m.Snapshot().LastError
}

// Tokens returns a copy of the held token pair, or nil.
func (m *SessionManager) Tokens() *sessions.TokenPair {
	s := m.current()
	if s == nil {
		return nil
	}
	return s.Tokens
}

func (m *SessionManager) current() *sessions.Session {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.Clone()
}

func (m *SessionManager) begin(clearError bool) uint64 {
	m.lock.Lock()
	m.loading++
	if clearError {
		m.lastError = ""
	}
	epoch := m.epoch
	snapshot := m.snapshotLocked()
	m.lock.Unlock()

	m.notify(snapshot)
	return epoch
}

func (m *SessionManager) end() {
	m.lock.Lock()
	m.loading--
	snapshot := m.snapshotLocked()
	m.lock.Unlock()

	m.notify(snapshot)
}

func (m *SessionManager) setError(message string) {
	m.lock.Lock()
	m.lastError = message
	snapshot := m.snapshotLocked()
	m.lock.Unlock()

	m.notify(snapshot)
}

// install replaces the session, the held token and the persisted record. It
// reports false, changing nothing, when a Logout happened since epoch.
func (m *SessionManager) install(epoch uint64, next *sessions.Session) bool {
	m.lock.Lock()
	if m.epoch != epoch {
		m.lock.Unlock()
		m.log.Debug().Msg("Discarding session from before sign-out")
		return false
	}
	m.session = next.Clone()
	m.holder.Set(next.AccessToken())
	if err := m.store.Save(next); err != nil {
		m.log.Warn().Err(err).Msg("Failed to persist session, continuing with it in memory")
	}
	snapshot := m.snapshotLocked()
	m.lock.Unlock()

	m.notify(snapshot)
	return true
}

func (m *SessionManager) installToken(epoch uint64, accessToken string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.epoch != epoch {
		return false
	}
	m.holder.Set(accessToken)
	return true
}

// expire signs out after an unrecoverable validation failure, unless the
// session has already been replaced by a Logout.
func (m *SessionManager) expire(epoch uint64, reason string, cause error) {
	m.lock.Lock()
	if m.epoch != epoch {
		m.lock.Unlock()
		return
	}
	m.epoch++
	m.clearLocked()
	snapshot := m.snapshotLocked()
	m.lock.Unlock()

	m.log.Info().Err(cause).Str("reason", reason).Msg("Session expired, signed out")
	m.notify(snapshot)
}

func (m *SessionManager) abandoned(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	m.log.Debug().Err(err).Msg("Session validation abandoned")
	return true
}

func (m *SessionManager) clearLocked() {
	m.session = nil
	m.holder.Set("")
	if err := m.store.Save(nil); err != nil {
		m.log.Warn().Err(err).Msg("Failed to erase persisted session")
	}
}

func (m *SessionManager) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:     StateAnonymous,
		Loading:   m.loading > 0,
		LastError: m.lastError,
	}
	if m.session.HasTokens() {
		snapshot.User = m.session.User.Clone()
		snapshot.State = StatePending
		if m.session.User.Valid() {
			snapshot.State = StateAuthenticated
		}
	}
	return snapshot
}

func (m *SessionManager) notify(snapshot Snapshot) {
	m.lock.Lock()
	listeners := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.lock.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
