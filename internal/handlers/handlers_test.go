package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"runleague/internal/database"
	"runleague/internal/leaderboard"
	"runleague/internal/strava"
	"runleague/internal/syncer"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestAthlete(t *testing.T, db *database.DB, id string) *database.Athlete {
	t.Helper()
	name := "Test Athlete " + id
	a := &database.Athlete{
		AthleteID: id,
		Name:      &name,
		JoinedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.CreateAthlete(a); err != nil {
		t.Fatalf("Failed to create athlete: %v", err)
	}
	return a
}

func withAthleteCookie(r *http.Request, athleteID string) *http.Request {
	r.AddCookie(&http.Cookie{Name: athleteCookie, Value: athleteID})
	return r
}

type stubSyncRunner struct {
	report *syncer.Report
	err    error
}

func (s *stubSyncRunner) Sync(_ context.Context, _ *database.Athlete) (*syncer.Report, error) {
	return s.report, s.err
}

func TestHandleSync(t *testing.T) {
	db := setupTestDB(t)
	createTestAthlete(t, db, "12345")

	t.Run("returns report", func(t *testing.T) {
		h := NewSyncHandler(db, &stubSyncRunner{
			report: &syncer.Report{NewRuns: 2, SkippedRuns: 1, TotalScore: 270},
		})

		req := withAthleteCookie(httptest.NewRequest(http.MethodPost, "/sync", nil), "12345")
		rec := httptest.NewRecorder()
		h.HandleSync(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var report syncer.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("Failed to decode report: %v", err)
		}
		if report.NewRuns != 2 || report.SkippedRuns != 1 || report.TotalScore != 270 {
			t.Errorf("Unexpected report: %+v", report)
		}
	})

	t.Run("rejects GET", func(t *testing.T) {
		h := NewSyncHandler(db, &stubSyncRunner{report: &syncer.Report{}})

		req := withAthleteCookie(httptest.NewRequest(http.MethodGet, "/sync", nil), "12345")
		rec := httptest.NewRecorder()
		h.HandleSync(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})

	t.Run("requires session cookie", func(t *testing.T) {
		h := NewSyncHandler(db, &stubSyncRunner{report: &syncer.Report{}})

		rec := httptest.NewRecorder()
		h.HandleSync(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("unknown athlete", func(t *testing.T) {
		h := NewSyncHandler(db, &stubSyncRunner{report: &syncer.Report{}})

		req := withAthleteCookie(httptest.NewRequest(http.MethodPost, "/sync", nil), "99999")
		rec := httptest.NewRecorder()
		h.HandleSync(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("fetch failure maps to bad gateway", func(t *testing.T) {
		h := NewSyncHandler(db, &stubSyncRunner{err: errors.New("strava unreachable")})

		req := withAthleteCookie(httptest.NewRequest(http.MethodPost, "/sync", nil), "12345")
		rec := httptest.NewRecorder()
		h.HandleSync(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", rec.Code)
		}
	})

	t.Run("expired authorization maps to unauthorized", func(t *testing.T) {
		h := NewSyncHandler(db, &stubSyncRunner{
			err: &strava.HTTPError{StatusCode: http.StatusUnauthorized, Body: "invalid token"},
		})

		req := withAthleteCookie(httptest.NewRequest(http.MethodPost, "/sync", nil), "12345")
		rec := httptest.NewRecorder()
		h.HandleSync(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})
}

func TestHandleLeaderboard(t *testing.T) {
	db := setupTestDB(t)
	createTestAthlete(t, db, "1")
	createTestAthlete(t, db, "2")

	insertRun := func(activityID, athleteID string, total float64) {
		t.Helper()
		err := db.InsertRun(&database.Run{
			StravaActivityID: activityID,
			AthleteID:        athleteID,
			Name:             "Run",
			StartDate:        time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC),
			TotalScore:       total,
		})
		if err != nil {
			t.Fatalf("Failed to insert run: %v", err)
		}
	}
	insertRun("a1", "1", 100)
	insertRun("a2", "2", 250)

	h := NewLeaderboardHandler(leaderboard.New(db))

	rec := httptest.NewRecorder()
	h.HandleLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entries []leaderboard.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("Failed to decode leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].AthleteID != "2" || entries[0].TotalScore != 250 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].AthleteID != "1" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestHandleActivities(t *testing.T) {
	db := setupTestDB(t)
	createTestAthlete(t, db, "1")

	hr := 150.0
	for i, day := range []int{3, 5, 7} {
		err := db.InsertRun(&database.Run{
			StravaActivityID: fmt.Sprintf("act-%d", i),
			AthleteID:        "1",
			Name:             "Morning Run",
			StartDate:        time.Date(2024, 6, day, 8, 0, 0, 0, time.UTC),
			DistanceMeters:   5000,
			MovingTimeSeconds: 1800,
			AverageHeartRate: &hr,
			DistanceScore:    50,
			HeartRateScore:   60,
			TotalScore:       110,
		})
		if err != nil {
			t.Fatalf("Failed to insert run: %v", err)
		}
	}

	h := NewActivitiesHandler(db)

	t.Run("lists most recent first", func(t *testing.T) {
		req := withAthleteCookie(httptest.NewRequest(http.MethodGet, "/activities", nil), "1")
		rec := httptest.NewRecorder()
		h.HandleActivities(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var runs []runResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
			t.Fatalf("Failed to decode activities: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("Expected 3 runs, got %d", len(runs))
		}
		if !strings.HasPrefix(runs[0].StartDate, "2024-06-07") {
			t.Errorf("Expected most recent run first, got %s", runs[0].StartDate)
		}
		if runs[0].TotalScore != 110 {
			t.Errorf("Expected total score 110, got %v", runs[0].TotalScore)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		req := withAthleteCookie(httptest.NewRequest(http.MethodGet, "/activities?limit=1&offset=1", nil), "1")
		rec := httptest.NewRecorder()
		h.HandleActivities(rec, req)

		var runs []runResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
			t.Fatalf("Failed to decode activities: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("Expected 1 run, got %d", len(runs))
		}
		if !strings.HasPrefix(runs[0].StartDate, "2024-06-05") {
			t.Errorf("Expected middle run, got %s", runs[0].StartDate)
		}
	})

	t.Run("requires session cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleActivities(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})
}

func TestHandleMaxHeartRate(t *testing.T) {
	db := setupTestDB(t)
	createTestAthlete(t, db, "1")

	h := NewAthleteHandler(db)

	t.Run("updates value", func(t *testing.T) {
		body := strings.NewReader(`{"maxHeartRate": 175}`)
		req := withAthleteCookie(httptest.NewRequest(http.MethodPut, "/athlete/max-heart-rate", body), "1")
		rec := httptest.NewRecorder()
		h.HandleMaxHeartRate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		athlete, err := db.GetAthlete("1")
		if err != nil {
			t.Fatalf("Failed to load athlete: %v", err)
		}
		if athlete.MaxHeartRate != 175 {
			t.Errorf("Expected max heart rate 175, got %d", athlete.MaxHeartRate)
		}
	})

	t.Run("rejects non-positive", func(t *testing.T) {
		body := strings.NewReader(`{"maxHeartRate": 0}`)
		req := withAthleteCookie(httptest.NewRequest(http.MethodPut, "/athlete/max-heart-rate", body), "1")
		rec := httptest.NewRecorder()
		h.HandleMaxHeartRate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		body := strings.NewReader(`not json`)
		req := withAthleteCookie(httptest.NewRequest(http.MethodPut, "/athlete/max-heart-rate", body), "1")
		rec := httptest.NewRecorder()
		h.HandleMaxHeartRate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		body := strings.NewReader(`{"maxHeartRate": 175}`)
		req := withAthleteCookie(httptest.NewRequest(http.MethodPost, "/athlete/max-heart-rate", body), "1")
		rec := httptest.NewRecorder()
		h.HandleMaxHeartRate(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	db := setupTestDB(t)
	h := NewHealthHandler(db)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", resp["status"])
	}
}
