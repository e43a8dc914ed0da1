// Package client is the HTTP wrapper every consumer of the catalog API goes
// through. Requests are resolved against a fixed base URL and carry a JSON
// content type unless the caller overrides it.
package client

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
)

const DefaultBaseURL = "http://localhost:3000/api/"

// Error is a non-2xx response decoded from the error envelope
type Error struct {
	Status  int
	Message string
	Detail  json.RawMessage
}

func (e *Error) Error() string {
	if len(e.Detail) > 0 && string(e.Detail) != "null" {
		return fmt.Sprintf("autek api error [%d]: %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("autek api error [%d]: %s", e.Status, e.Message)
}

// Request describes one call. URL is relative to the base URL unless it is
// absolute. Body is sent as is when it is an io.Reader, JSON encoded otherwise.
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Headers map[string]string
	Body    any
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client with its 30 second timeout
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do sends the request and returns the raw response body
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	target, err := c.resolve(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (c *Client) resolve(ref string, params url.Values) (string, error) {
	rel, err := url.Parse(strings.TrimPrefix(ref, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", ref, err)
	}

	target := c.baseURL.ResolveReference(rel)
	if len(params) > 0 {
		query := target.Query()
		for key, values := range params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		return &Error{Status: status, Message: strings.TrimSpace(http.StatusText(status))}
	}
	return &Error{Status: status, Message: envelope.Message, Detail: envelope.Error}
}
