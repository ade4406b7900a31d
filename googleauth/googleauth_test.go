package googleauth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/cirota-portal/googleauth"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "portal-client.apps.googleusercontent.com"
	testKeyID    = "test-key"
	testCode     = "code-1"
)

// issuer is a minimal OpenID provider: discovery, keys and a token endpoint
// that checks the PKCE verifier against the challenge seen on the consent URL.
type issuer struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	lock      sync.Mutex
	challenge string
	audience  string
}

func newIssuer(t *testing.T) *issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	iss := &issuer{key: key, audience: testClientID}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		base := iss.server.URL
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                base,
			"authorization_endpoint":                base + "/auth",
			"token_endpoint":                        base + "/token",
			"jwks_uri":                              base + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKeyID,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))

		iss.lock.Lock()
		challenge, audience := iss.challenge, iss.audience
		iss.lock.Unlock()

		if r.PostForm.Get("code") != testCode || base64.RawURLEncoding.EncodeToString(sum[:]) != challenge {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		idToken := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, jwtlib.MapClaims{
			"iss":   iss.server.URL,
			"aud":   audience,
			"sub":   "google-sub-7",
			"email": "a@x.io",
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		idToken.Header["kid"] = testKeyID
		signed, err := idToken.SignedString(key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     signed,
		})
	})

	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)
	return iss
}

func (iss *issuer) sawConsentURL(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	iss.lock.Lock()
	iss.challenge = q.Get("code_challenge")
	iss.lock.Unlock()
	return q
}

func newFlow(t *testing.T, iss *issuer, redirect string) *googleauth.Flow {
	t.Helper()
	f, err := googleauth.New(context.Background(), googleauth.Config{
		ClientID:     testClientID,
		ClientSecret: "secret",
		Issuer:       iss.server.URL,
		RedirectURL:  redirect,
	}, googleauth.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	_, err := googleauth.New(context.Background(), googleauth.Config{RedirectURL: "http://127.0.0.1/cb"})
	require.Error(t, err)

	_, err = googleauth.New(context.Background(), googleauth.Config{ClientID: testClientID})
	require.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	iss := newIssuer(t)
	f := newFlow(t, iss, "http://127.0.0.1:8085/callback")

	state, verifier := googleauth.NewState()
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)

	q := iss.sawConsentURL(t, f.AuthCodeURL(state, verifier))
	sum := sha256.Sum256([]byte(verifier))
	require.Equal(t, state, q.Get("state"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), q.Get("code_challenge"))
	require.Equal(t, "openid email profile", q.Get("scope"))
}

func TestExchange(t *testing.T) {
	iss := newIssuer(t)
	f := newFlow(t, iss, "http://127.0.0.1:8085/callback")
	ctx := context.Background()

	state, verifier := googleauth.NewState()
	iss.sawConsentURL(t, f.AuthCodeURL(state, verifier))

	t.Run("returns the verified id token", func(t *testing.T) {
		idToken, err := f.Exchange(ctx, testCode, verifier)
		require.NoError(t, err)
		require.NotEmpty(t, idToken)
	})

	t.Run("wrong verifier", func(t *testing.T) {
		_, err := f.Exchange(ctx, testCode, "not-the-verifier-not-the-verifier-not-the-verifier")
		require.Error(t, err)
	})

	t.Run("id token for another client", func(t *testing.T) {
		iss.lock.Lock()
		iss.audience = "someone-else"
		iss.lock.Unlock()

		_, err := f.Exchange(ctx, testCode, verifier)
		require.Error(t, err)
		require.Contains(t, err.Error(), "verification failed")
	})
}

func TestReceiveCode(t *testing.T) {
	iss := newIssuer(t)

	listen := func(t *testing.T) (net.Listener, *googleauth.Flow, string) {
		t.Helper()
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		redirect := "http://" + l.Addr().String() + "/callback"
		return l, newFlow(t, iss, redirect), redirect
	}

	t.Run("returns the code for the matching state", func(t *testing.T) {
		l, f, redirect := listen(t)

		go func() {
			resp, err := http.Get(redirect + "?state=other&code=stolen")
			if err == nil {
				resp.Body.Close()
			}
			resp, err = http.Get(redirect + "?state=s1&code=" + testCode)
			if err == nil {
				resp.Body.Close()
			}
		}()

		code, err := f.ReceiveCode(context.Background(), l, "s1")
		require.NoError(t, err)
		require.Equal(t, testCode, code)
	})

	t.Run("consent denied", func(t *testing.T) {
		l, f, redirect := listen(t)

		go func() {
			resp, err := http.Get(redirect + "?state=s1&error=access_denied")
			if err == nil {
				resp.Body.Close()
			}
		}()

		_, err := f.ReceiveCode(context.Background(), l, "s1")
		require.True(t, interrors.Is(err, interrors.ErrAuthenticationFailed))
	})

	t.Run("context cancelled", func(t *testing.T) {
		l, f, _ := listen(t)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := f.ReceiveCode(ctx, l, "s1")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
