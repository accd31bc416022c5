// Package api is the HTTP client for the session server. It keeps the
// current access token and refresh token id in memory and replays them on
// later calls; nothing is persisted.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrUnavailable wraps transport-level failures: the server could not
	// be reached at all.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized covers every 401: bad credentials, dead refresh
	// tokens, and revoked sessions alike. The client has to log in again.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict reports a taken login on registration.
	ErrConflict = errors.New("login already taken")
)

const refreshCookieName = "refresh_token"

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, login string, password []byte) error {
	resp, err := c.postJSON(ctx, "/api/register", credentialsRequest{Login: login, Password: string(password)})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrConflict
	default:
		return apiError(resp)
	}
}

// Login authenticates and stores the resulting token pair.
func (c *Client) Login(ctx context.Context, login string, password []byte) error {
	resp, err := c.postJSON(ctx, "/api/login", credentialsRequest{Login: login, Password: string(password)})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return c.storeTokens(resp)
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return apiError(resp)
	}
}

// Refresh exchanges the stored refresh token for a fresh pair. On any 401
// the stored tokens are dropped; the session is gone either way.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.postWithRefreshCookie(ctx, "/api/refresh")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return c.storeTokens(resp)
	case http.StatusUnauthorized:
		c.clearTokens()
		return ErrUnauthorized
	default:
		return apiError(resp)
	}
}

// Logout revokes the current refresh token and forgets both tokens.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.postWithRefreshCookie(ctx, "/api/logout")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.clearTokens()

	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	return nil
}

// Whoami asks the server who the access token belongs to.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/me", nil)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", err
		}
		return body["user_id"], nil
	case http.StatusUnauthorized:
		return "", ErrUnauthorized
	default:
		return "", apiError(resp)
	}
}

// HasSession reports whether a refresh token is currently held.
func (c *Client) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken != ""
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *Client) postWithRefreshCookie(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: c.refreshToken})
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *Client) storeTokens(resp *http.Response) error {
	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = body.AccessToken
	for _, cookie := range resp.Cookies() {
		if cookie.Name == refreshCookieName && cookie.Value != "" {
			c.refreshToken = cookie.Value
		}
	}
	return nil
}

func (c *Client) clearTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
}

func apiError(resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("server error: %s (%s)", body.Error, resp.Status)
	}
	return fmt.Errorf("server error: %s", resp.Status)
}
