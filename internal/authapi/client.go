// Package authapi talks to the management API's token endpoint.
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

var (
	// ErrRejected is returned for 401/403 responses.
	ErrRejected = errors.New("credentials rejected")
	// ErrThrottled is returned for 429 responses.
	ErrThrottled = errors.New("too many login attempts")
	// ErrMissingToken is returned when a 2xx response carries no access_token.
	ErrMissingToken = errors.New("response missing access_token")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("auth endpoint returned %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("auth endpoint returned %d", e.Code)
}

// Is lets callers match 401/403 responses with errors.Is(err, ErrRejected)
// and 429 responses with ErrThrottled.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRejected:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrThrottled:
		return e.Code == http.StatusTooManyRequests
	}
	return false
}

// TokenResponse is the JSON body of a successful token request.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Client posts credentials to the token endpoint.
type Client struct {
	BaseURL    string
	TokenPath  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// RequestToken submits username and password form-encoded and returns the
// access token from the response.
func (c *Client) RequestToken(ctx context.Context, username, password string) (string, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger().Debug("token request", "url", endpoint, "username", username)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	c.logger().Debug("token response", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Detail: errorDetail(body)}
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	if tr.AccessToken == "" {
		return "", ErrMissingToken
	}
	return tr.AccessToken, nil
}

func (c *Client) endpoint() (string, error) {
	path := c.TokenPath
	if path == "" {
		path = "/api/auth/token"
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse token path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// errorDetail extracts the message from FastAPI-style {"detail": "..."} bodies.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
