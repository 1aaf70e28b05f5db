// Package apiclient is the HTTP client half of the Phonely SDK. It speaks
// the versioned envelope API, injects bearer tokens from a session.Store,
// and silently refreshes an expired access token once per request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/phonely/marketplace/pkg/session"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// envelope is the wire shape of every API response.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// refreshData is the payload of a successful token refresh.
type refreshData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Client calls the Phonely HTTP API. A nil session store disables
// authentication and the silent-refresh path.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithClientLogger overrides the default logger.
func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient builds a Client rooted at baseURL (e.g. "http://localhost:8080").
// The "/api/v1" prefix is applied to every path.
func NewClient(baseURL string, store *session.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET and decodes the envelope's data field into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// Post performs a POST with a JSON body and decodes the data field into out.
// out may be nil when the caller does not need the response payload.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false)
}

// Patch performs a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out, false)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, false)
}

// do runs one request. On a 401 it refreshes the access token and retries
// exactly once; the retried flag is per-call, never global, so one stuck
// request cannot wedge the rest of the client.
func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.store != nil {
		if token := c.store.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried && c.refreshable(path) {
		if c.refresh(ctx) {
			return c.do(ctx, method, path, body, out, true)
		}
		c.store.Logout()
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if resp.StatusCode >= 400 || env.Status == "error" {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// refreshable reports whether a 401 on this path should trigger the silent
// refresh. The auth endpoints themselves answer 401 for their own reasons.
func (c *Client) refreshable(path string) bool {
	if c.store == nil {
		return false
	}
	switch path {
	case "/auth/login", "/auth/register", "/auth/refresh", "/auth/verify-otp":
		return false
	}
	return c.store.RefreshToken() != ""
}

// refresh rotates the refresh token and stores the new pair. Returns false
// when the session cannot be recovered.
func (c *Client) refresh(ctx context.Context) bool {
	body := map[string]string{"refreshToken": c.store.RefreshToken()}
	var data refreshData
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &data, true); err != nil {
		c.log.Warn().Err(err).Msg("apiclient: token refresh failed")
		return false
	}
	c.store.SetTokens(data.Token, data.RefreshToken)
	return true
}
