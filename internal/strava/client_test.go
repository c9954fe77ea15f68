package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordingTokenStore struct {
	mu           sync.Mutex
	athleteID    string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	calls        int
}

func (s *recordingTokenStore) UpdateAthleteTokens(athleteID, accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.athleteID = athleteID
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiresAt = expiresAt
	s.calls++
	return nil
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if body["code"] != "auth_code_123" {
			t.Errorf("Expected code auth_code_123, got %s", body["code"])
		}
		if body["grant_type"] != "authorization_code" {
			t.Errorf("Expected grant_type authorization_code, got %s", body["grant_type"])
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"access_token": "access_abc",
			"refresh_token": "refresh_def",
			"expires_at": 1893456000,
			"athlete": {"id": 12345, "firstname": "Test", "lastname": "Athlete"}
		}`)
	}))
	defer server.Close()

	client := NewClient("client_id", "client_secret")
	client.SetTokenURL(server.URL)

	resp, err := client.ExchangeCode(context.Background(), "auth_code_123")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	if resp.AccessToken != "access_abc" {
		t.Errorf("Expected access token access_abc, got %s", resp.AccessToken)
	}
	if resp.RefreshToken != "refresh_def" {
		t.Errorf("Expected refresh token refresh_def, got %s", resp.RefreshToken)
	}

	var athlete struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Athlete, &athlete); err != nil {
		t.Fatalf("Failed to parse athlete payload: %v", err)
	}
	if athlete.ID != 12345 {
		t.Errorf("Expected athlete id 12345, got %d", athlete.ID)
	}
}

func TestExchangeCodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message": "Bad Request"}`)
	}))
	defer server.Close()

	client := NewClient("client_id", "client_secret")
	client.SetTokenURL(server.URL)

	_, err := client.ExchangeCode(context.Background(), "bad_code")
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
}

func TestListActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer valid_token" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("Expected page 1, got %s", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Errorf("Expected per_page 2, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{
				"id": 101,
				"name": "Morning Run",
				"type": "Run",
				"start_date": "2024-06-03T08:00:00Z",
				"distance": 5000.0,
				"moving_time": 1800,
				"average_heartrate": 152.5
			},
			{
				"id": 102,
				"name": "Evening Ride",
				"type": "Ride",
				"start_date": "2024-06-03T18:00:00Z",
				"distance": 20000.0,
				"moving_time": 3600
			}
		]`)
	}))
	defer server.Close()

	client := NewClient("client_id", "client_secret")
	client.SetBaseURL(server.URL)

	creds := Credentials{
		AthleteID:      "12345",
		AccessToken:    "valid_token",
		RefreshToken:   "refresh",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}

	activities, hasMore, err := client.ListActivities(context.Background(), creds, nil, 1, 2)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}

	if len(activities) != 2 {
		t.Fatalf("Expected 2 activities, got %d", len(activities))
	}
	if !hasMore {
		t.Error("Expected hasMore for a full page")
	}

	run := activities[0]
	if run.ID != 101 || run.Type != "Run" {
		t.Errorf("Unexpected first activity: %+v", run)
	}
	if run.AverageHeartRate == nil || *run.AverageHeartRate != 152.5 {
		t.Errorf("Expected average heartrate 152.5, got %v", run.AverageHeartRate)
	}
	if activities[1].AverageHeartRate != nil {
		t.Errorf("Expected nil heartrate for second activity, got %v", *activities[1].AverageHeartRate)
	}
	if !run.StartDate.Equal(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start date: %v", run.StartDate)
	}
}

func TestListActivitiesPartialPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 101, "name": "Run", "type": "Run", "start_date": "2024-06-03T08:00:00Z", "distance": 5000, "moving_time": 1800}]`)
	}))
	defer server.Close()

	client := NewClient("client_id", "client_secret")
	client.SetBaseURL(server.URL)

	creds := Credentials{AccessToken: "valid_token", TokenExpiresAt: time.Now().Add(time.Hour)}

	activities, hasMore, err := client.ListActivities(context.Background(), creds, nil, 1, 100)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("Expected 1 activity, got %d", len(activities))
	}
	if hasMore {
		t.Error("Expected no more pages for a partial page")
	}
}

func TestListActivitiesRefreshesExpiredToken(t *testing.T) {
	var apiCalls int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		if got := r.Header.Get("Authorization"); got != "Bearer fresh_token" {
			t.Errorf("Expected refreshed token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer api.Close()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["grant_type"] != "refresh_token" {
			t.Errorf("Expected grant_type refresh_token, got %s", body["grant_type"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "fresh_token", "refresh_token": "fresh_refresh", "expires_at": %d}`,
			time.Now().Add(6*time.Hour).Unix())
	}))
	defer tokenServer.Close()

	client := NewClient("client_id", "client_secret")
	client.SetBaseURL(api.URL)
	client.SetTokenURL(tokenServer.URL)

	store := &recordingTokenStore{}
	creds := Credentials{
		AthleteID:      "12345",
		AccessToken:    "stale_token",
		RefreshToken:   "old_refresh",
		TokenExpiresAt: time.Now().Add(-time.Hour),
	}

	_, _, err := client.ListActivities(context.Background(), creds, store, 1, 100)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}

	if apiCalls != 1 {
		t.Errorf("Expected 1 API call, got %d", apiCalls)
	}
	if store.calls != 1 {
		t.Fatalf("Expected 1 token store update, got %d", store.calls)
	}
	if store.accessToken != "fresh_token" || store.refreshToken != "fresh_refresh" {
		t.Errorf("Unexpected stored tokens: %s / %s", store.accessToken, store.refreshToken)
	}
	if store.athleteID != "12345" {
		t.Errorf("Expected tokens stored for athlete 12345, got %s", store.athleteID)
	}
}

func TestHTTPErrorHelpers(t *testing.T) {
	unauthorized := fmt.Errorf("page 1: %w", &HTTPError{StatusCode: http.StatusUnauthorized, Body: "invalid"})
	if !IsUnauthorized(unauthorized) {
		t.Error("Expected IsUnauthorized for wrapped 401")
	}
	if IsNotFound(unauthorized) {
		t.Error("Did not expect IsNotFound for 401")
	}
	if !IsTooManyRequests(&HTTPError{StatusCode: http.StatusTooManyRequests}) {
		t.Error("Expected IsTooManyRequests for 429")
	}
	if IsUnauthorized(fmt.Errorf("plain error")) {
		t.Error("Did not expect IsUnauthorized for plain error")
	}
}
