package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL  = "https://www.strava.com/api/v3"
	defaultTokenURL = "https://www.strava.com/oauth/token"
	tokenBuffer     = 5 * time.Minute // Refresh tokens 5 minutes before expiry
)

// TokenStore persists refreshed athlete tokens
type TokenStore interface {
	UpdateAthleteTokens(athleteID, accessToken, refreshToken string, expiresAt time.Time) error
}

// Client is a Strava API client
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	logger       *slog.Logger
	baseURL      string
	tokenURL     string
}

// NewClient creates a new Strava API client
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       slog.Default(),
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SetTokenURL overrides the token endpoint URL (used in tests)
func (c *Client) SetTokenURL(u string) { c.tokenURL = u }

// HTTPError represents a non-success response from the Strava API
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("strava API error (status %d): %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a 401 from the Strava API
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the Strava API
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// IsTooManyRequests reports whether err is a 429 from the Strava API
func IsTooManyRequests(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}

// TokenResponse represents the response from a token exchange or refresh
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	ExpiresIn    int             `json:"expires_in"`
	Athlete      json.RawMessage `json:"athlete,omitempty"`
}

// ExchangeCode exchanges an authorization code for access and refresh tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	return c.tokenRequest(ctx, "token_exchange", map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
	})
}

// RefreshToken refreshes an access token using a refresh token
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.tokenRequest(ctx, "token_refresh", map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	})
}

func (c *Client) tokenRequest(ctx context.Context, op string, data map[string]string) (*TokenResponse, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("token request failed", "op", op, "error", err, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Info(op, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &tokenResp, nil
}

// accessTokenFor returns a valid access token for the athlete, refreshing
// and persisting tokens through the store when the current one is close to
// expiry.
func (c *Client) accessTokenFor(ctx context.Context, athleteID, accessToken, refreshToken string, expiresAt time.Time, store TokenStore) (string, error) {
	if time.Now().Add(tokenBuffer).Before(expiresAt) || store == nil {
		return accessToken, nil
	}

	c.logger.Info("refreshing token", "athlete_id", athleteID)
	tokenResp, err := c.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := store.UpdateAthleteTokens(athleteID, tokenResp.AccessToken, tokenResp.RefreshToken, time.Unix(tokenResp.ExpiresAt, 0)); err != nil {
		c.logger.Error("failed to update tokens", "athlete_id", athleteID, "error", err)
		return "", fmt.Errorf("failed to update tokens: %w", err)
	}

	return tokenResp.AccessToken, nil
}

// doRequest performs an authenticated GET against the Strava API
func (c *Client) doRequest(ctx context.Context, path, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("request failed", "path", path, "error", err, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("strava_api_request", "path", path, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	return bodyBytes, nil
}
