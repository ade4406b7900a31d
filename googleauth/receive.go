package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
)

const callbackPage = `<!doctype html><html><body><p>%s You can close this window.</p></body></html>`

type callbackResult struct {
	code string
	err  error
}

// ReceiveCode serves the redirect on listener until one callback carrying
// state arrives, and returns its code. The listener is closed on return.
func (f *Flow) ReceiveCode(ctx context.Context, listener net.Listener, state string) (string, error) {
	redirect, err := f.RedirectURL()
	if err != nil {
		return "", interrors.Wrapf(err, "[googleauth.ReceiveCode] bad redirect url")
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var result callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			result.err = interrors.Wrapf(interrors.ErrAuthenticationFailed, "[googleauth.ReceiveCode] %s: %s", q.Get("error"), q.Get("error_description"))
			fmt.Fprintf(w, callbackPage, "Sign-in was cancelled.")
		case q.Get("code") == "":
			result.err = interrors.Wrapf(interrors.ErrInvalidResponse, "[googleauth.ReceiveCode] callback without code")
			fmt.Fprintf(w, callbackPage, "Sign-in failed.")
		default:
			result.code = q.Get("code")
			fmt.Fprintf(w, callbackPage, "Signed in.")
		}

		select {
		case results <- result:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	f.log.Debug().Str("addr", listener.Addr().String()).Msg("Waiting for Google redirect")
	select {
	case result := <-results:
		return result.code, result.err
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = interrors.ErrNoSession
		}
		return "", interrors.Wrapf(err, "[googleauth.ReceiveCode] callback server stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
