package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/cirota-portal/oauthmodel"
	"github.com/pkg/errors"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string // Human readable "detail" from the response body, may be empty
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[client %s %s] %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("[client %s %s] %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}
	var er oauthmodel.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		apiErr.Detail = er.Message()
	}
	return apiErr
}

// Detail returns the server supplied message carried by err, or "".
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from an API response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
