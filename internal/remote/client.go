// Package remote is the HTTP plumbing shared by the analyzer, project store
// and identity clients: base URL handling, credential header, status mapping
// and JSON decoding.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/billie-coop/sift/internal/credential"
	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultTimeout bounds a single call when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error body is read for the message.
const maxErrorBody = 4 << 10

// Client performs JSON calls against one base URL.
type Client struct {
	baseURL string
	http    *http.Client
	creds   credential.Source
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-call timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithCredential attaches the token source read before every call.
func WithCredential(src credential.Source) Option {
	return func(c *Client) {
		c.creds = src
	}
}

// New creates a client for baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends in (JSON-encoded when non-nil) and decodes a 2xx body into out
// (skipped when out is nil). op names the call in errors and logs.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}
	return c.send(ctx, op, method, path, query, body, "application/json", out)
}

// DoRaw is Do with a caller-supplied body and content type.
func (c *Client) DoRaw(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	return c.send(ctx, op, method, path, nil, body, contentType, out)
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		if token, ok := c.creds.Token(); ok {
			req.Header.Set("Authorization", token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logx.WithContext(ctx).Debugf("%s %s failed after %s: %v", method, path, time.Since(start), err)
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	logx.WithContext(ctx).Debugf("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Op: op, Message: readErrorMessage(resp.Body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Op: op, Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
		}
		if !json.Valid(data) {
			return &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("malformed response body")}
		}
		*raw = append((*raw)[:0], data...)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// readErrorMessage pulls "error" out of {"error": "..."} bodies, falling
// back to the trimmed text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
