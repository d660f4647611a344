// Package transport fetches documents over HTTP for the remote registry
// source.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/errors"
)

// maxBodyBytes caps a fetched document.
const maxBodyBytes = 8 << 20

// Client provides HTTP client functionality with authentication.
type Client struct {
	http  *http.Client
	auth  Authenticator
	token string
}

// New creates a client that applies auth with token to every request. An
// empty token sends no credentials.
func New(auth Authenticator, token string) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:  &http.Client{Timeout: constants.RegistryFetchTimeout},
		auth:  auth,
		token: token,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Response is a fetched document.
type Response struct {
	Body        []byte
	ETag        string
	NotModified bool
	StatusCode  int
	ContentType string
}

// Get fetches url. A non-empty etag makes the request conditional, and a
// 304 reply comes back with NotModified set and no body. Any other
// non-2xx status is an error.
func (c *Client) Get(ctx context.Context, url, etag string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewValidationError("url", url, err.Error())
	}
	req.Header.Set("Accept", "application/yaml, text/yaml, */*")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if c.token != "" {
		c.auth.Apply(req, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out := &Response{
		ETag:        resp.Header.Get("ETag"),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if resp.StatusCode == http.StatusNotModified {
		out.NotModified = true
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s: unexpected status %d: %s", url, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.WrapIO("read", url, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("GET %s: document exceeds %d bytes", url, maxBodyBytes)
	}
	out.Body = body
	return out, nil
}
