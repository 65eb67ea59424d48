// Package apiclient is the HTTP primitive every repository goes through. It
// injects the role's bearer token and turns responses into the apperr
// taxonomy. It never retries.
package apiclient

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

	"feira/internal/apperr"
	"feira/internal/models"
	"feira/internal/session"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 4 << 20

// Config holds the backend location and per-request timeout.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Request describes one call relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Client sends authenticated requests on behalf of a single role.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  session.TokenStore
	role    models.Role
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClock overrides time.Now, used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client for role.
func New(cfg Config, tokens session.TokenStore, role models.Role, logger *slog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		role:   role,
		logger: logger.With("role", string(role)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Role returns the role this client authenticates as.
func (c *Client) Role() models.Role {
	return c.role
}

// Session returns the stored session, or an AuthError if there is none or it
// has expired. An expired session is removed from the store.
func (c *Client) Session(ctx context.Context) (session.Session, error) {
	s, err := c.tokens.Load(ctx, c.role)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return session.Session{}, &apperr.AuthError{Role: string(c.role), Reason: "no stored token"}
		}
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if s.Expired(c.now()) {
		if err := c.tokens.Delete(ctx, c.role); err != nil {
			c.logger.Warn("failed to drop expired session", "error", err)
		}
		return session.Session{}, &apperr.AuthError{Role: string(c.role), Reason: "token expired"}
	}
	return s, nil
}

// Do sends an authenticated request and decodes a 2xx JSON body into out
// (which may be nil).
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	s, err := c.Session(ctx)
	if err != nil {
		return err
	}
	return c.send(ctx, r, s.Token, out)
}

// DoPublic sends a request without credentials.
func (c *Client) DoPublic(ctx context.Context, r Request, out any) error {
	return c.send(ctx, r, "", out)
}

func (c *Client) send(ctx context.Context, r Request, token string, out any) error {
	op := r.Method + " " + r.Path
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "error", err)
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &apperr.NetworkError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}
	c.logger.Debug("request completed", "op", op, "status", resp.StatusCode, "duration", c.now().Sub(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized && token == "":
		// No session was involved, e.g. a login with bad credentials.
		return &apperr.ServerError{Status: resp.StatusCode, Message: serverMessage(raw, "")}
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.tokens.Delete(ctx, c.role); err != nil {
			c.logger.Warn("failed to drop rejected session", "error", err)
		}
		return &apperr.AuthError{Role: string(c.role), Reason: serverMessage(raw, "token rejected")}
	case resp.StatusCode == http.StatusNotFound:
		return &apperr.NotFoundError{Resource: r.Path}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		srvErr := &apperr.ServerError{Status: resp.StatusCode, Message: serverMessage(raw, "")}
		c.logger.Warn("request rejected", "op", op, "status", resp.StatusCode, "message", srvErr.Message)
		return srvErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("failed to decode response", "op", op, "error", err)
		return fmt.Errorf("failed to decode %s response: %w", op, &apperr.ServerError{Status: resp.StatusCode})
	}
	return nil
}

// serverMessage extracts "message" or "error" from a JSON error body.
func serverMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	return fallback
}
