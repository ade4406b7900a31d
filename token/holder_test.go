package token_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/jrsteele09/cirota-portal/token"
	"github.com/stretchr/testify/require"
)

func TestHolder(t *testing.T) {
	h := token.NewHolder("")
	require.Empty(t, h.AccessToken())

	_, err := h.Token()
	require.ErrorIs(t, err, token.ErrNoToken)

	h.Set("A1")
	require.Equal(t, "A1", h.AccessToken())

	tok, err := h.Token()
	require.NoError(t, err)
	require.Equal(t, "A1", tok.AccessToken)
	require.True(t, tok.Valid())

	req, err := http.NewRequest(http.MethodGet, "http://example.test", nil)
	require.NoError(t, err)
	tok.SetAuthHeader(req)
	require.Equal(t, "Bearer A1", req.Header.Get("Authorization"))

	h.Set("")
	_, err = h.Token()
	require.ErrorIs(t, err, token.ErrNoToken)
}

func TestHolder_ConcurrentUse(t *testing.T) {
	h := token.NewHolder("A0")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Set("A1")
		}()
		go func() {
			defer wg.Done()
			_ = h.AccessToken()
		}()
	}
	wg.Wait()
	require.Equal(t, "A1", h.AccessToken())
}
