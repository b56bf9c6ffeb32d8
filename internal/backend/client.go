// Package backend is the HTTP client for the cloud incubator API. Every
// request carries the session bearer token; a 401/403 from any endpoint
// fires the unauthorized hook so the session can be torn down globally.
package backend

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

	"incubator_console/internal/models"
)

// TokenSource supplies the current bearer token ("" when logged out).
type TokenSource interface {
	Token() string
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401/403 backend response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	onAuthFail func()
}

// New builds a client for the given base URL. onAuthFail may be nil.
func New(baseURL string, timeout time.Duration, tokens TokenSource, onAuthFail func()) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		onAuthFail: onAuthFail,
	}
}

// LoginResult is the token response of POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges form-encoded credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return LoginResult{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out LoginResult
	if err := c.send(req, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// Me fetches the profile of the logged-in operator.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &u)
	return u, err
}

// ListDevices fetches all devices with their latest telemetry.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := c.doJSON(ctx, http.MethodGet, "/devices/", nil, &devices)
	return devices, err
}

// GetDevice fetches a single device.
func (c *Client) GetDevice(ctx context.Context, id string) (models.Device, error) {
	var d models.Device
	err := c.doJSON(ctx, http.MethodGet, "/devices/"+id, nil, &d)
	return d, err
}

// UpdateDevice persists configuration thresholds on the backend.
func (c *Client) UpdateDevice(ctx context.Context, id string, cfg models.DeviceConfig) (models.Device, error) {
	var d models.Device
	err := c.doJSON(ctx, http.MethodPut, "/devices/"+id, cfg, &d)
	return d, err
}

// Telemetry fetches up to limit historical samples.
func (c *Client) Telemetry(ctx context.Context, id string, limit int) ([]models.Sample, error) {
	var samples []models.Sample
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/devices/%s/telemetry?limit=%d", id, limit), nil, &samples)
	return samples, err
}

// Stats fetches the current-day aggregate for a device.
func (c *Client) Stats(ctx context.Context, id string) (models.DeviceStats, error) {
	var st models.DeviceStats
	err := c.doJSON(ctx, http.MethodGet, "/devices/"+id+"/stats", nil, &st)
	return st, err
}

// SendCommand transmits a fire-and-acknowledge device command.
func (c *Client) SendCommand(ctx context.Context, id, cmd string, params map[string]any) error {
	body := map[string]any{"cmd": cmd, "params": params}
	if params == nil {
		body["params"] = map[string]any{}
	}
	return c.doJSON(ctx, http.MethodPost, "/devices/"+id+"/cmd", body, nil)
}

// Analyze asks the backend's analysis service for a health assessment.
func (c *Client) Analyze(ctx context.Context, id string) (models.Analysis, error) {
	var a models.Analysis
	err := c.doJSON(ctx, http.MethodPost, "/devices/"+id+"/analyze", nil, &a)
	return a, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if c.onAuthFail != nil {
			c.onAuthFail()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
