package database

import (
	"testing"
	"time"
)

// setupTestDB opens a fresh SQLite database in a temp dir
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// testAthlete inserts a minimal athlete row and returns it
func testAthlete(t *testing.T, db *DB, athleteID string, joinedAt time.Time) *Athlete {
	t.Helper()

	name := "Test Athlete"
	a := &Athlete{
		AthleteID:    athleteID,
		Name:         &name,
		MaxHeartRate: 190,
		JoinedAt:     joinedAt,
	}
	if err := db.CreateAthlete(a); err != nil {
		t.Fatalf("Failed to create athlete: %v", err)
	}
	return a
}

func TestOpenInitializesSchema(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Health(); err != nil {
		t.Fatalf("Expected healthy database, got %v", err)
	}

	// Schema should exist: inserting an athlete must work immediately
	testAthlete(t, db, "12345", time.Now())
}
