// Package fakeapi is an in-process stand-in for the portal backend's auth
// surface and a few portal routes, used to exercise the client end to end.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/cirota-portal/sessions"
	"github.com/jrsteele09/cirota-portal/users"
)

// Request is a request the fake has received.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type failure struct {
	status int
	detail string
}

// Server serves /api/auth/google, /api/auth/refresh, /api/auth/me,
// /api/users/profile and /api/admin/dashboard.
type Server struct {
	lock           sync.RWMutex
	users          map[int]*users.User
	credentials    map[string]int // Google credential -> user id
	issuer         *tokenIssuer
	revokedAccess  map[string]bool
	revokedRefresh map[string]bool
	issuedAccess   []string
	issuedRefresh  []string
	failures       map[string][]failure
	requests       []Request
	omitUser       bool

	httpServer *httptest.Server
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithNowTime sets the clock tokens are issued and verified against.
func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.issuer.now = now
	}
}

// WithAccessExpiry sets the access token lifetime (default 30 minutes).
func WithAccessExpiry(d time.Duration) Option {
	return func(s *Server) {
		s.issuer.accessExpiry = d
	}
}

// WithoutUserInAuthResponse makes /api/auth/google answer with tokens only.
func WithoutUserInAuthResponse() Option {
	return func(s *Server) {
		s.omitUser = true
	}
}

// New starts the fake on a loopback listener. Call Close when done.
func New(options ...Option) *Server {
	s := &Server{
		users:          make(map[int]*users.User),
		credentials:    make(map[string]int),
		revokedAccess:  make(map[string]bool),
		revokedRefresh: make(map[string]bool),
		failures:       make(map[string][]failure),
		issuer: &tokenIssuer{
			secret:        []byte("fakeapi-signing-secret"),
			accessExpiry:  30 * time.Minute,
			refreshExpiry: 12 * time.Hour,
			now:           time.Now,
		},
	}
	for _, opt := range options {
		opt(s)
	}
	s.httpServer = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/google", s.googleAuth)
		r.Post("/refresh", s.refresh)
		r.With(s.requireAuth).Get("/me", s.me)
	})
	r.With(s.requireAuth).Get("/api/users/profile", s.profile)
	r.With(s.requireAuth, s.requireAdmin).Get("/api/admin/dashboard", s.dashboard)
	return r
}

// URL is the base URL of the fake, without a trailing slash.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Client returns an http.Client wired to the fake's listener.
func (s *Server) Client() *http.Client {
	return s.httpServer.Client()
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// AddUser registers user and the Google credential that signs it in.
func (s *Server) AddUser(user *users.User, googleToken string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.users[user.ID] = user.Clone()
	if googleToken != "" {
		s.credentials[googleToken] = user.ID
	}
}

// DeleteUser removes a user; their tokens stop resolving.
func (s *Server) DeleteUser(id int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.users, id)
}

// IssueTokens mints a pair for a registered user without going through Google.
func (s *Server) IssueTokens(userID int) (*sessions.TokenPair, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("[IssueTokens] unknown user %d", userID)
	}
	return s.issueLocked(user)
}

// ExpireAccessTokens rejects every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, id := range s.issuedAccess {
		s.revokedAccess[id] = true
	}
}

// RevokeRefreshTokens rejects every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, id := range s.issuedRefresh {
		s.revokedRefresh[id] = true
	}
}

// FailNext makes the next request to "METHOD /path" fail with status and detail.
func (s *Server) FailNext(route string, status int, detail string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, detail: detail})
}

// Requests returns the requests received so far, oldest first.
func (s *Server) Requests() []Request {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests were made to "METHOD /path".
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method+" "+r.Path == route {
			n++
		}
	}
	return n
}

func (s *Server) issueLocked(user *users.User) (*sessions.TokenPair, error) {
	access, accessID, err := s.issuer.issue(user, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshID, err := s.issuer.issue(user, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	s.issuedAccess = append(s.issuedAccess, accessID)
	s.issuedRefresh = append(s.issuedRefresh, refreshID)
	return &sessions.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.lock.Lock()
		queued := s.failures[route]
		var f *failure
		if len(queued) > 0 {
			f = &queued[0]
			s.failures[route] = queued[1:]
		}
		s.lock.Unlock()

		if f != nil {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeMissingField(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"loc":  []string{"body", field},
			"msg":  "field required",
			"type": "value_error.missing",
		}},
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
