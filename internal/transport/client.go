// Package transport implements the HTTP plumbing shared by every pathway:
// base URL resolution, JSON round-tripping and the mapping of remote failures
// into domain errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"verid/internal/sentinel"
	dErrors "verid/pkg/domain-errors"
)

const (
	sandboxBaseURL    = "https://testapi.verid.io/v1"
	productionBaseURL = "https://api.verid.io/v1"

	userAgent = "verid-go/1.0"
)

// ResolveBaseURL maps the numeric server selector onto a fixed deployment
// target. Any other value passes through unmodified as a custom base URL.
func ResolveBaseURL(server string) string {
	switch server {
	case "0":
		return sandboxBaseURL
	case "1":
		return productionBaseURL
	default:
		return server
	}
}

// Doer is the minimal interface needed from an HTTP client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks JSON to the verification service.
type Client struct {
	baseURL string
	http    Doer
}

// Option configures the Client.
type Option func(*Client)

// WithDoer sets a custom HTTP client (for testing).
func WithDoer(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// New creates a transport client for the given server selector or base URL.
func New(server string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: ResolveBaseURL(server),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// remoteError is the structured error body the service returns on failure.
type remoteError struct {
	Code  json.Number `json:"code"`
	Error string      `json:"error"`
}

// PostJSON sends body as JSON to baseURL+path and decodes a 2xx response into
// out. Non-2xx responses surface as transport errors carrying the remote
// {code, error} pair when the service supplied one.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "failed to execute request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "failed to read response body")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var remote remoteError
		if json.Unmarshal(respBody, &remote) == nil && remote.Error != "" {
			return dErrors.Remote(remote.Code.String(), remote.Error)
		}
		return dErrors.New(dErrors.CodeTransport, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "failed to parse response")
	}
	return nil
}

// Put transfers raw bytes to an absolute URL. Success is strictly HTTP 200;
// the upload destinations are pre-authorized, so no credentials are attached.
func (c *Client) Put(ctx context.Context, url, contentType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	req.ContentLength = int64(len(payload))

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "failed to execute request")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return dErrors.Wrap(
			fmt.Errorf("%w: %d", sentinel.ErrBadStatus, resp.StatusCode),
			dErrors.CodeTransport,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		)
	}
	return nil
}
