// Package transport is the HTTP client shared by the source clients. It sets
// the user agent, bounds every request with a timeout and turns non-2xx
// responses into typed API errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// maxErrorBody bounds how much of an error response ends up in messages.
const maxErrorBody = 512

// Client performs requests against one remote source.
type Client struct {
	http      *http.Client
	source    string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for the named source.
func New(source string, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		source:    source,
		userAgent: constants.UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source name used in errors.
func (c *Client) Source() string {
	return c.source
}

// Get performs a GET request and returns the body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.Do(req)
}

// PostJSON encodes payload as JSON, posts it and returns the body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapParse("json", "request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// Do sends req with the common headers and reads the whole body.
func (c *Client) Do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.WrapAPI(c.source, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		apiErr := errors.NewAPIError(c.source, resp.StatusCode, msg)
		apiErr.Endpoint = req.URL.String()
		return nil, apiErr
	}
	return body, nil
}

// Decode unmarshals a JSON body.
func Decode(body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
