package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Activity is a summary activity from the Strava list endpoint with the
// fields the scoring engine needs. Input is untrusted: the syncer filters
// by type and start date before anything is scored.
type Activity struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	StartDate        time.Time `json:"start_date"`
	Distance         float64   `json:"distance"`    // meters
	MovingTime       int64     `json:"moving_time"` // seconds
	AverageHeartRate *float64  `json:"average_heartrate,omitempty"`
}

// Credentials identifies an athlete's tokens for API calls
type Credentials struct {
	AthleteID      string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
}

// ListActivities fetches a page of the athlete's activities.
// Returns the activities and whether more pages are likely available.
func (c *Client) ListActivities(ctx context.Context, creds Credentials, store TokenStore, page, perPage int) ([]Activity, bool, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 200 // Strava max
	}

	accessToken, err := c.accessTokenFor(ctx, creds.AthleteID, creds.AccessToken, creds.RefreshToken, creds.TokenExpiresAt, store)
	if err != nil {
		return nil, false, err
	}

	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}

	respBody, err := c.doRequest(ctx, "/athlete/activities?"+params.Encode(), accessToken)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list activities: %w", err)
	}

	var activities []Activity
	if err := json.Unmarshal(respBody, &activities); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal activities: %w", err)
	}

	// If we got a full page, there might be more
	hasMore := len(activities) == perPage

	return activities, hasMore, nil
}
