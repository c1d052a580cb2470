// Package client talks to a running daylog server.
package client

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

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daylog API error %d", e.Status)
	}
	return fmt.Sprintf("daylog API error %d: %s", e.Status, e.Message)
}

func (e *APIError) IsNotFound() bool   { return e.Status == http.StatusNotFound }
func (e *APIError) IsValidation() bool { return e.Status == http.StatusBadRequest }

// IsNotFound reports whether err is an APIError for a missing log.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// Client is a log service client bound to one server.
type Client struct {
	httpClient *http.Client
	baseURL    string // scheme://host[:port]
	basePath   string // e.g. /api/logs
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBasePath changes the route prefix from /api/logs.
func WithBasePath(p string) Option {
	return func(c *Client) { c.basePath = "/" + strings.Trim(p, "/") }
}

// New returns a client for the server at baseURL with the given per-request
// timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		basePath:   constants.DefaultBasePath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List returns every log, newest date first. A non-empty filter is passed
// to the server as an expression.
func (c *Client) List(ctx context.Context, filter string) ([]models.LogEntry, error) {
	path := c.basePath
	if filter != "" {
		path += "?" + url.Values{"filter": {filter}}.Encode()
	}
	var entries []models.LogEntry
	if err := c.do(ctx, http.MethodGet, path, "", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) Get(ctx context.Context, id string) (models.LogEntry, error) {
	var e models.LogEntry
	err := c.do(ctx, http.MethodGet, c.entryPath(id), "", nil, &e)
	return e, err
}

func (c *Client) Create(ctx context.Context, in models.LogInput) (models.LogEntry, error) {
	var e models.LogEntry
	err := c.do(ctx, http.MethodPost, c.basePath, "application/json", in, &e)
	return e, err
}

// Update replaces every mutable field of the log.
func (c *Client) Update(ctx context.Context, id string, in models.LogInput) (models.LogEntry, error) {
	var e models.LogEntry
	err := c.do(ctx, http.MethodPut, c.entryPath(id), "application/json", in, &e)
	return e, err
}

// Patch sends a merge patch. A nil value clears an optional field.
func (c *Client) Patch(ctx context.Context, id string, patch map[string]any) (models.LogEntry, error) {
	var e models.LogEntry
	err := c.do(ctx, http.MethodPatch, c.entryPath(id), "application/merge-patch+json", patch, &e)
	return e, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.entryPath(id), "", nil, nil)
}

// Health returns the backend name reported by /healthz.
func (c *Client) Health(ctx context.Context) (string, error) {
	var body struct {
		Status string `json:"status"`
		Store  string `json:"store"`
	}
	if err := c.do(ctx, http.MethodGet, "/healthz", "", nil, &body); err != nil {
		return "", err
	}
	return body.Store, nil
}

func (c *Client) entryPath(id string) string {
	return c.basePath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daylog API request failed: %w", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding daylog response: %w", err)
	}
	return nil
}
