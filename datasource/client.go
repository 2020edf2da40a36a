// Package datasource fetches page definitions and records from a JSON data
// API laid out as /<type>/<key>.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIKeyHeader is the header the API key is sent in.
const APIKeyHeader = "x-api-key"

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 << 20
)

var (
	// ErrNoBaseURL is returned by New when no base URL is given.
	ErrNoBaseURL = errors.New("datasource: base URL is required")

	// ErrResponseTooLarge is returned when a response body is longer than
	// the Client's limit. The body is never truncated and decoded.
	ErrResponseTooLarge = errors.New("datasource: response body too large")
)

// StatusError is returned when the API responds with a status other than 200
// or 404.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned %d", e.URL, e.StatusCode)
}

// Client talks to the data API. It can safely be used by multiple
// goroutines.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	maxBodyBytes int64
}

// Option customises a Client.
type Option func(*Client)

// WithAPIKey sends key with every request. Without it, no key header is sent.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithMaxBodySize limits how many bytes of a response body are read. Defaults
// to 10 MiB. Values below 1 are ignored.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithHTTPClient overrides the http.Client requests are made with.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("datasource: invalid base URL %q: %w", baseURL, err)
	}
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: defaultTimeout},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FetchData returns the record of resourceType with key, or every record of
// resourceType when key is empty.
//
// A 404 is not an error: its body is returned if it's JSON, and an empty
// object otherwise. An empty 200 body is also returned as an empty object.
// Any other status returns a *StatusError.
func (c *Client) FetchData(ctx context.Context, resourceType, key string) (json.RawMessage, error) {
	endpoint := c.endpoint(resourceType, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request to %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response from %s: %w", endpoint, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response from %s is over %d bytes: %w", endpoint, c.maxBodyBytes, ErrResponseTooLarge)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		if resp.StatusCode == http.StatusNotFound {
			return json.RawMessage("{}"), nil
		}
		return nil, fmt.Errorf("response from %s is not valid JSON", endpoint)
	}
	return json.RawMessage(body), nil
}

func (c *Client) endpoint(resourceType, key string) string {
	endpoint := c.baseURL + "/" + url.PathEscape(resourceType)
	if key != "" {
		endpoint += "/" + url.PathEscape(key)
	}
	return endpoint
}
