package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/cirota-portal/users"
)

type contextKey string

const contextKeyUser contextKey = "user"

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	User         *users.User `json:"user,omitempty"`
}

func (s *Server) googleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GoogleToken string `json:"google_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GoogleToken == "" {
		writeMissingField(w, "google_token")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	user, ok := s.users[s.credentials[req.GoogleToken]]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid Google token")
		return
	}
	pair, err := s.issueLocked(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := authResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"}
	if !s.omitUser {
		resp.User = user.Clone()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeMissingField(w, "refresh_token")
		return
	}

	c, err := s.issuer.parse(req.RefreshToken, "")
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if c.TokenType != tokenTypeRefresh {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.revokedRefresh[c.ID] {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	user, ok := s.users[c.UserID]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return
	}
	pair, err := s.issueLocked(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	s.lock.RLock()
	total := len(s.users)
	s.lock.RUnlock()
	writeJSON(w, http.StatusOK, map[string]int{
		"total_users":          total,
		"active_subscriptions": 0,
		"pending_complaints":   0,
	})
}

// requireAuth resolves the bearer token to a user, answering 401 the way the
// backend does when it cannot.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		c, err := s.issuer.parse(raw, "")
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		s.lock.RLock()
		revoked := s.revokedAccess[c.ID]
		user, ok := s.users[c.UserID]
		s.lock.RUnlock()

		if revoked {
			writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user.Clone())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !userFromContext(r.Context()).Admin() {
			writeDetail(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(contextKeyUser).(*users.User)
	return user
}
