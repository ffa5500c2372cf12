// Package kakao implements the social-auth provider against the Kakao REST API.
package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vmunix/moviedeck/internal/identity"
)

const defaultBaseURL = "https://kapi.kakao.com"

// StatusNotConnected is reported for missing, expired or revoked tokens.
const StatusNotConnected = "not_connected"

// ErrNoToken is returned by calls that need a token when none is set.
var ErrNoToken = errors.New("kakao: no access token")

// TokenInfo is the access_token_info response.
type TokenInfo struct {
	ID        int64 `json:"id"`
	ExpiresIn int   `json:"expires_in"`
	AppID     int   `json:"app_id"`
}

// Client talks to kapi.kakao.com on behalf of one logged-in user.
type Client struct {
	mu         sync.RWMutex
	token      string
	baseURL    string
	httpClient *http.Client
}

var _ identity.SocialProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client with no token.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// StatusInfo validates the token. A 401 means the token is no longer connected.
func (c *Client) StatusInfo(ctx context.Context) (string, error) {
	if c.AccessToken() == "" {
		return StatusNotConnected, nil
	}
	var info TokenInfo
	status, err := c.do(ctx, http.MethodGet, "/v1/user/access_token_info", &info)
	if status == http.StatusUnauthorized {
		return StatusNotConnected, nil
	}
	if err != nil {
		return "", err
	}
	return identity.StatusConnected, nil
}

// Logout expires the token on Kakao's side and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	if c.AccessToken() == "" {
		return ErrNoToken
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/v1/user/logout", &out); err != nil {
		return err
	}
	c.SetAccessToken("")
	return nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (*identity.Profile, error) {
	if c.AccessToken() == "" {
		return nil, ErrNoToken
	}
	var p identity.Profile
	if _, err := c.do(ctx, http.MethodGet, "/v2/user/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("kakao API error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
