package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/jrsteele09/cirota-portal/internal/fakeapi"
	"github.com/jrsteele09/cirota-portal/users"
	"github.com/stretchr/testify/require"
)

type env struct {
	api *fakeapi.Server
	dir string
}

func newEnv(t *testing.T, store string) *env {
	t.Helper()

	api := fakeapi.New()
	t.Cleanup(api.Close)
	api.AddUser(&users.User{ID: 7, Name: gofakeit.Name(), Email: gofakeit.Email()}, "tok-customer")
	api.AddUser(&users.User{ID: 1, Name: gofakeit.Name(), Email: gofakeit.Email(), IsAdmin: true}, "tok-admin")

	dir := t.TempDir()
	t.Setenv("API_URL", api.URL())
	t.Setenv("SESSION_DIR", dir)
	t.Setenv("SESSION_STORE", store)
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("CONFIG_PATH", "")
	return &env{api: api, dir: dir}
}

func (e *env) run(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"-q"}, args...), &stdout, &stderr)
	if err != nil || stdout.Len() == 0 {
		return nil, err
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	return out, nil
}

func TestCustomerSession(t *testing.T) {
	for _, store := range []string{"file", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			e := newEnv(t, store)

			out, err := e.run(t, "status")
			require.NoError(t, err)
			require.Equal(t, "anonymous", out["state"])
			require.Equal(t, "/login", out["home"])

			_, err = e.run(t, "profile")
			require.True(t, interrors.Is(err, interrors.ErrNotAuthenticated))

			out, err = e.run(t, "login", "-google-token", "tok-customer")
			require.NoError(t, err)
			require.Equal(t, "/user", out["home"])
			require.Equal(t, float64(7), out["user"].(map[string]any)["id"])

			// A new process picks the session up from storage.
			out, err = e.run(t, "whoami")
			require.NoError(t, err)
			require.Equal(t, float64(7), out["id"])

			out, err = e.run(t, "profile")
			require.NoError(t, err)
			require.Equal(t, float64(7), out["id"])

			_, err = e.run(t, "admin", "dashboard")
			require.True(t, interrors.Is(err, interrors.ErrAdminRequired))

			out, err = e.run(t, "logout")
			require.NoError(t, err)
			require.Equal(t, "anonymous", out["state"])

			_, err = e.run(t, "whoami")
			require.True(t, interrors.Is(err, interrors.ErrNotAuthenticated))
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	e := newEnv(t, "file")

	_, err := e.run(t, "login", "-google-token", "tok-customer")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(e.dir, "cirota.auth.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAdminSession(t *testing.T) {
	e := newEnv(t, "file")

	out, err := e.run(t, "login", "-google-token", "tok-admin")
	require.NoError(t, err)
	require.Equal(t, "/admin", out["home"])

	out, err = e.run(t, "admin", "dashboard")
	require.NoError(t, err)
	require.Equal(t, float64(2), out["total_users"])

	_, err = e.run(t, "profile")
	require.True(t, interrors.Is(err, interrors.ErrUserOnly))
}

func TestExpiredAccessTokenIsRefreshedDuringCommand(t *testing.T) {
	e := newEnv(t, "file")

	_, err := e.run(t, "login", "-google-token", "tok-customer")
	require.NoError(t, err)
	e.api.ExpireAccessTokens()

	out, err := e.run(t, "profile")
	require.NoError(t, err)
	require.Equal(t, float64(7), out["id"])
	require.Equal(t, 1, e.api.Count("POST /api/auth/refresh"))
}

func TestRevokedSessionSignsOut(t *testing.T) {
	e := newEnv(t, "file")

	_, err := e.run(t, "login", "-google-token", "tok-customer")
	require.NoError(t, err)
	e.api.ExpireAccessTokens()
	e.api.RevokeRefreshTokens()

	out, err := e.run(t, "refresh")
	require.NoError(t, err)
	require.Equal(t, "anonymous", out["state"])

	_, err = os.Stat(filepath.Join(e.dir, "cirota.auth.json"))
	require.True(t, os.IsNotExist(err))
}

func TestLoginRejected(t *testing.T) {
	e := newEnv(t, "file")

	_, err := e.run(t, "login", "-google-token", "nope")
	require.True(t, interrors.Is(err, interrors.ErrAuthenticationFailed))
	require.EqualError(t, err, "Invalid Google token")
}

func TestUsage(t *testing.T) {
	e := newEnv(t, "file")

	_, err := e.run(t)
	require.Error(t, err)

	_, err = e.run(t, "frobnicate")
	require.ErrorContains(t, err, "unknown command")

	_, err = e.run(t, "meals", "confirm", "abc")
	require.Error(t, err)
}
