// Package client is the HTTP transport for the portal API. Every request
// carries the access token currently held by the token source it was built
// with.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON = "application/json"
	maxResponseSize = 10 << 20
)

// Client sends JSON requests to the API rooted at a base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	metrics    *Metrics
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client whose transport requests are sent through.
// The client itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// New returns a client for baseURL. tokens is read on every request; a nil
// source sends no Authorization header.
func New(baseURL string, tokens oauth2.TokenSource, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "[client New] parsing base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("[client New] base URL %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		log:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	base := http.DefaultClient
	if c.httpClient != nil {
		base = c.httpClient
	}
	hc := *base
	hc.Transport = &bearerTransport{
		base:      base.Transport,
		source:    tokens,
		userAgent: c.userAgent,
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc

	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get sends a GET with params as the query string and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post sends body as JSON and decodes the response into out. A nil body sends
// an empty request.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return errors.Wrapf(err, "[client %s %s]", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	elapsed := time.Since(start)
	c.metrics.observe(method, resp.StatusCode, elapsed)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", req.Header.Get(headerRequestID)).
		Msg("API request")
	if err != nil {
		return errors.Wrapf(err, "[client %s %s] reading response", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return interrors.Wrapf(interrors.ErrInvalidResponse, "[client %s %s] decoding response: %v", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body any) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = params.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, interrors.Wrapf(interrors.ErrInvalidRequest, "[client %s %s] encoding body: %v", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.Wrapf(err, "[client %s %s] building request", method, path)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	return req, nil
}
