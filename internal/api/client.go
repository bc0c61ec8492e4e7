// Package api is the HTTP client for the commercial-management REST backend.
// Every response is wrapped in a {success, message, data, errors} envelope;
// the client unwraps it and turns failures into *Error values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 10 << 20
)

// Config configures a Client.
type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Retry      common.RetryOptions
	Timeout    time.Duration
}

// Client talks to the backend. It implements service.CategoryService and
// service.SettingsService.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	retry      common.RetryOptions
	timeout    time.Duration
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
	Success bool            `json:"success"`
}

// NewClient creates a client for the API rooted at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: api base url is required", common.ErrMissingConfig)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid api base url: %w", common.ErrInvalidConfig, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: api base url must be http or https, got %q", common.ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "cadmin"
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		timeout:    timeout,
		retry:      cfg.Retry,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one call.
type request struct {
	query       url.Values
	body        io.Reader
	out         any
	method      string
	path        string
	contentType string
}

// get performs an idempotent GET, retrying transient failures. The timeout
// bounds the whole call, retries and backoff included, and a timed out
// attempt is not retried.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	r := request{method: http.MethodGet, path: path, query: query, out: out}
	err := common.WithRetry(ctx, func() error {
		err := c.do(ctx, r)
		if KindOf(err) == KindTimeout {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return err
	}, c.retry)

	var stopped *common.RetryableError
	if errors.As(err, &stopped) {
		return stopped.Err
	}
	if err != nil && KindOf(err) != KindTimeout && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// The deadline passed while waiting between attempts.
		return c.transportError(ctx, r, "", err)
	}
	return err
}

// sendJSON performs a mutating call with a JSON body. Mutations are never retried.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	req := request{method: method, path: path, out: out}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		req.body = bytes.NewReader(payload)
		req.contentType = "application/json"
	}
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, r request) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		endpoint.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint.String(), r.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, r, requestID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.transportError(ctx, r, requestID, err)
	}

	slog.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID)

	var env *envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		var decoded envelope
		if err := json.Unmarshal(raw, &decoded); err == nil {
			env = &decoded
		} else if resp.StatusCode < 300 {
			return &Error{
				Kind:      KindUnknown,
				Method:    r.method,
				Path:      r.path,
				Status:    resp.StatusCode,
				Message:   "invalid response from server",
				RequestID: requestID,
				Err:       err,
			}
		}
	}

	if resp.StatusCode >= 300 {
		apiErr := &Error{
			Kind:      kindForStatus(resp.StatusCode),
			Method:    r.method,
			Path:      r.path,
			Status:    resp.StatusCode,
			Message:   statusMessage(resp.StatusCode, env),
			RequestID: requestID,
		}
		if env != nil {
			apiErr.Fields = env.Errors
			apiErr.fromBackend = env.Message != "" || len(env.Errors) > 0
		}
		return apiErr
	}

	if env == nil {
		return nil
	}

	if !env.Success {
		kind := KindUnknown
		if len(env.Errors) > 0 {
			kind = KindValidation
		}
		return &Error{
			Kind:        kind,
			Method:      r.method,
			Path:        r.path,
			Status:      resp.StatusCode,
			Message:     statusMessage(resp.StatusCode, env),
			Fields:      env.Errors,
			RequestID:   requestID,
			fromBackend: env.Message != "" || len(env.Errors) > 0,
		}
	}

	if r.out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, r.out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", r.method, r.path, err)
		}
	}

	return nil
}

func (c *Client) transportError(ctx context.Context, r request, requestID string, err error) error {
	kind := KindNetwork
	message := "could not reach the server"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = KindTimeout
		message = fmt.Sprintf("no response within %s", c.timeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{
		Kind:      kind,
		Method:    r.method,
		Path:      r.path,
		Message:   message,
		RequestID: requestID,
		Err:       err,
	}
}

// Health calls the given health endpoint and returns the backend's message.
func (c *Client) Health(ctx context.Context, path string) (string, error) {
	var data map[string]any
	if err := c.get(ctx, path, nil, &data); err != nil {
		return "", err
	}
	if status, ok := data["status"].(string); ok {
		return status, nil
	}
	return "ok", nil
}
