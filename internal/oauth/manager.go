package oauth

import (
	"context"
	"crypto/rand"
	"errors"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"runleague/internal/database"
	"runleague/internal/strava"
)

const (
	authorizationURL = "https://www.strava.com/oauth/authorize"
	scope            = "activity:read_all,profile:read_all"
	stateTTL         = 10 * time.Minute
)

// ErrInvalidState is returned when a callback carries an unknown, reused or
// expired state parameter.
var ErrInvalidState = errors.New("invalid or expired state")

// Manager handles the OAuth 2.0 flow with Strava
type Manager struct {
	db           *database.DB
	stravaClient *strava.Client
	logger       *slog.Logger
	states       *stateStore // CSRF protection
}

// stateStore tracks valid OAuth states for CSRF protection
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewManager creates a new OAuth manager
func NewManager(db *database.DB, stravaClient *strava.Client) *Manager {
	return &Manager{
		db:           db,
		stravaClient: stravaClient,
		logger:       slog.Default(),
		states: &stateStore{
			states: make(map[string]time.Time),
		},
	}
}

// GenerateAuthURL generates a Strava authorization URL with CSRF protection
func (m *Manager) GenerateAuthURL(clientID, redirectURI string) (string, string, error) {
	state, err := generateRandomState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	m.states.mu.Lock()
	m.states.states[state] = time.Now().Add(stateTTL)
	m.states.mu.Unlock()

	params := url.Values{
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {scope},
		"state":         {state},
	}

	return fmt.Sprintf("%s?%s", authorizationURL, params.Encode()), state, nil
}

// HandleCallback processes the OAuth callback: it exchanges the code,
// creates the athlete on first authentication (fixing their join timestamp),
// and stores the tokens. Returns the athlete record.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (*database.Athlete, error) {
	if !m.validateState(state) {
		return nil, ErrInvalidState
	}

	tokenResp, err := m.stravaClient.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var summary struct {
		ID        int64  `json:"id"`
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Email     string `json:"email"`
	}
	if err := json.Unmarshal(tokenResp.Athlete, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse athlete data: %w", err)
	}
	if summary.ID == 0 {
		return nil, fmt.Errorf("token response missing athlete id")
	}

	athleteID := strconv.FormatInt(summary.ID, 10)

	var name *string
	if full := strings.TrimSpace(summary.FirstName + " " + summary.LastName); full != "" {
		name = &full
	}
	var email *string
	if summary.Email != "" {
		email = &summary.Email
	}

	// joined_at is fixed the first time; reconnecting never moves it
	athlete, err := m.db.GetOrCreateAthlete(athleteID, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create athlete: %w", err)
	}

	expiresAt := time.Unix(tokenResp.ExpiresAt, 0)
	if err := m.db.UpdateAthleteTokens(athleteID, tokenResp.AccessToken, tokenResp.RefreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	athlete.AccessToken = tokenResp.AccessToken
	athlete.RefreshToken = tokenResp.RefreshToken
	athlete.TokenExpiresAt = expiresAt

	m.logger.Info("OAuth callback complete",
		"athlete_id", athleteID,
		"joined_at", athlete.JoinedAt)

	return athlete, nil
}

// validateState checks if a state is valid and removes it (one-time use)
func (m *Manager) validateState(state string) bool {
	m.states.mu.Lock()
	defer m.states.mu.Unlock()

	expiry, exists := m.states.states[state]
	if !exists {
		return false
	}

	delete(m.states.states, state)

	return time.Now().Before(expiry)
}

// generateRandomState generates a cryptographically secure random state
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
