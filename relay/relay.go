// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package relay sends outbound requests to external services.
//
// In relay mode every request is wrapped in an envelope and posted to a
// generic outbound relay, which interpolates secret placeholders, performs
// the call and answers with the upstream status and body unchanged. In
// direct mode (no relay URL) the client interpolates placeholders from the
// environment and calls the service itself. Either way failures surface as
// the retry package's taxonomy: transport failures match retry.ErrNetwork and
// non-2xx answers are *retry.StatusError.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/poiesic/shopit/retry"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
)

var secretPattern = regexp.MustCompile(`\{\{secret:([A-Za-z0-9_]+)\}\}`)

// Secret returns the placeholder the relay replaces with the named secret.
func Secret(name string) string {
	return "{{secret:" + name + "}}"
}

// Request describes one call to an external service.
type Request struct {
	URL     string
	Method  string            // Defaults to POST when Body is set, GET otherwise
	Headers map[string]string // Values may contain Secret placeholders
	Body    any               // JSON-encoded when non-nil
}

// Response is the upstream answer.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// envelope is what the relay expects.
type envelope struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// Client sends requests through the relay, or directly when no relay is configured.
// Client is safe for concurrent use.
type Client struct {
	relayURL   string
	httpClient *http.Client
	lookup     func(name string) string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSecretLookup sets how placeholders are resolved in direct mode.
// Default is os.Getenv.
func WithSecretLookup(lookup func(name string) string) Option {
	return func(c *Client) {
		if lookup != nil {
			c.lookup = lookup
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client. An empty relayURL selects direct mode.
func New(relayURL string, opts ...Option) *Client {
	c := &Client{
		relayURL:   relayURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		lookup:     os.Getenv,
		logger:     slog.Default().With("component", "relay"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Direct reports whether the client bypasses the relay.
func (c *Client) Direct() bool {
	return c.relayURL == ""
}

// Do performs the request once. Retrying is the caller's concern.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.URL == "" {
		return nil, ErrEmptyURL
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	var httpReq *http.Request
	var err error
	if c.Direct() {
		httpReq, err = c.directRequest(ctx, method, req, body)
	} else {
		httpReq, err = c.relayRequest(ctx, method, req, body)
	}
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, retry.NetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, retry.NetworkError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("remote call failed", "url", req.URL, "status", resp.StatusCode)
		return nil, &retry.StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// DoJSON performs the request and decodes a JSON object response.
func (c *Client) DoJSON(ctx context.Context, req Request) (map[string]any, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return decoded, nil
}

func (c *Client) relayRequest(ctx context.Context, method string, req Request, body []byte) (*http.Request, error) {
	env, err := json.Marshal(envelope{
		URL:     req.URL,
		Method:  method,
		Headers: req.Headers,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("encode relay envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(env))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (c *Client) directRequest(ctx context.Context, method string, req Request, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.interpolate(req.URL), reader)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, c.interpolate(v))
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// interpolate replaces secret placeholders using the lookup function.
func (c *Client) interpolate(s string) string {
	return secretPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := secretPattern.FindStringSubmatch(m)[1]
		return c.lookup(name)
	})
}

var (
	// ErrEmptyURL is returned when a request has no target URL.
	ErrEmptyURL = errors.New("request URL is empty")

	// ErrMalformedResponse is returned when a response body is not a JSON object.
	ErrMalformedResponse = errors.New("malformed response")
)
