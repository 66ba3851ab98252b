package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shareustc/shareustc"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Client performs operations against a shareustc server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// Me returns the identity carried by the access token.
func (c *Client) Me(ctx context.Context) (shareustc.Identity, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return shareustc.Identity{}, err
	}

	var id shareustc.Identity
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &id); err != nil {
		return shareustc.Identity{}, fmt.Errorf("me: %w", err)
	}
	return id, nil
}

// Refresh exchanges the configured refresh token for a new pair.
// The client keeps using its old access token; callers persist the pair.
func (c *Client) Refresh(ctx context.Context) (shareustc.TokenPair, error) {
	if c.config.RefreshToken == "" {
		return shareustc.TokenPair{}, ErrRefreshTokenRequired
	}

	body := map[string]string{"refreshToken": c.config.RefreshToken}

	var pair shareustc.TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, body, &pair); err != nil {
		return shareustc.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	return pair, nil
}

// UploadCredentials requests STS credentials scoped to prefix.
func (c *Client) UploadCredentials(ctx context.Context, prefix string) (*UploadCredential, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	var cred UploadCredential
	body := map[string]string{"prefix": prefix}
	if err := c.do(ctx, http.MethodPost, "/api/oss/sts-token", nil, body, &cred); err != nil {
		return nil, fmt.Errorf("sts token: %w", err)
	}
	return &cred, nil
}

// Presign asks the server for a signed download URL. A zero expires uses
// the server default.
func (c *Client) Presign(ctx context.Context, key string, expires time.Duration) (*PresignResult, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	q := url.Values{"key": {key}}
	if expires > 0 {
		q.Set("expires", strconv.FormatInt(int64(expires/time.Second), 10))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/oss/presign", q, nil, &out); err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &PresignResult{Key: key, URL: out.URL, Expires: expires}, nil
}

// Delete removes one or more objects. It continues on error, collecting a
// result for every key.
func (c *Client) Delete(ctx context.Context, keys ...string) ([]DeleteResult, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	results := make([]DeleteResult, 0, len(keys))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		path := "/api/oss/objects/" + strings.TrimPrefix(key, "/")
		err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
		results = append(results, DeleteResult{Key: key, Deleted: err == nil, Err: err})
	}

	return results, nil
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// AuditLogs reads the admin audit log, newest first.
// If opts.All is true, pages are followed until the log is exhausted.
func (c *Client) AuditLogs(ctx context.Context, opts AuditOptions) (*shareustc.AuditPage, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	if !opts.All {
		return c.auditPage(ctx, opts)
	}

	all := &shareustc.AuditPage{}
	for {
		page, err := c.auditPage(ctx, opts)
		if err != nil {
			return nil, err
		}
		all.Items = append(all.Items, page.Items...)

		if page.NextCursor == "" {
			return all, nil
		}
		opts.Cursor = page.NextCursor
	}
}

func (c *Client) auditPage(ctx context.Context, opts AuditOptions) (*shareustc.AuditPage, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Action != "" {
		q.Set("action", opts.Action)
	}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}

	var page shareustc.AuditPage
	if err := c.do(ctx, http.MethodGet, "/api/admin/audit-logs", q, nil, &page); err != nil {
		return nil, fmt.Errorf("audit logs: %w", err)
	}
	return &page, nil
}

// do sends one API request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.config.Endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseServerError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// parseServerError extracts the machine code and message from an error body.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Error
		apiErr.Message = env.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := "server error: " + strconv.Itoa(e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the server rejects the token (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the caller's role does not allow the request (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
