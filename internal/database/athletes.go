package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Athlete represents a Strava athlete competing on the leaderboard
type Athlete struct {
	AthleteID      string
	Name           *string
	Email          *string
	MaxHeartRate   int
	JoinedAt       time.Time
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateAthlete inserts a new athlete into the database
func (db *DB) CreateAthlete(a *Athlete) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	if a.MaxHeartRate <= 0 {
		a.MaxHeartRate = 190
	}

	_, err := db.conn.Exec(`
		INSERT INTO athletes (
			athlete_id, name, email, max_heart_rate, joined_at,
			access_token, refresh_token, token_expires_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.AthleteID, a.Name, a.Email, a.MaxHeartRate, a.JoinedAt.Unix(),
		a.AccessToken, a.RefreshToken, a.TokenExpiresAt.Unix(),
		a.CreatedAt.Unix(), a.UpdatedAt.Unix())

	if err != nil {
		return fmt.Errorf("failed to create athlete: %w", err)
	}
	return nil
}

// GetAthlete retrieves an athlete by ID. Returns (nil, nil) when not found.
func (db *DB) GetAthlete(athleteID string) (*Athlete, error) {
	var a Athlete
	var joinedAt, tokenExpiresAt, createdAt, updatedAt int64

	err := db.conn.QueryRow(`
		SELECT athlete_id, name, email, max_heart_rate, joined_at,
		       access_token, refresh_token, token_expires_at,
		       created_at, updated_at
		FROM athletes WHERE athlete_id = ?
	`, athleteID).Scan(
		&a.AthleteID, &a.Name, &a.Email, &a.MaxHeartRate, &joinedAt,
		&a.AccessToken, &a.RefreshToken, &tokenExpiresAt,
		&createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	a.JoinedAt = time.Unix(joinedAt, 0).UTC()
	a.TokenExpiresAt = time.Unix(tokenExpiresAt, 0).UTC()
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	a.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &a, nil
}

// GetOrCreateAthlete returns the existing athlete or creates one with
// joined_at set to now. The join timestamp is immutable after creation:
// an athlete reconnecting keeps their original eligibility window.
func (db *DB) GetOrCreateAthlete(athleteID string, name, email *string) (*Athlete, error) {
	existing, err := db.GetAthlete(athleteID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	a := &Athlete{
		AthleteID:    athleteID,
		Name:         name,
		Email:        email,
		MaxHeartRate: 190,
		JoinedAt:     time.Now().UTC(),
	}
	if err := db.CreateAthlete(a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAthleteTokens updates an athlete's OAuth tokens
func (db *DB) UpdateAthleteTokens(athleteID, accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := db.conn.Exec(`
		UPDATE athletes
		SET access_token = ?, refresh_token = ?, token_expires_at = ?, updated_at = ?
		WHERE athlete_id = ?
	`, accessToken, refreshToken, expiresAt.Unix(), time.Now().Unix(), athleteID)

	if err != nil {
		return fmt.Errorf("failed to update athlete tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("athlete not found")
	}

	return nil
}

// UpdateAthleteMaxHeartRate updates the heart-rate normalization parameter
func (db *DB) UpdateAthleteMaxHeartRate(athleteID string, maxHeartRate int) error {
	if maxHeartRate <= 0 {
		return fmt.Errorf("max heart rate must be positive, got %d", maxHeartRate)
	}

	result, err := db.conn.Exec(`
		UPDATE athletes
		SET max_heart_rate = ?, updated_at = ?
		WHERE athlete_id = ?
	`, maxHeartRate, time.Now().Unix(), athleteID)

	if err != nil {
		return fmt.Errorf("failed to update max heart rate: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("athlete not found")
	}

	return nil
}

// ListAthletes returns all athletes ordered by athlete ID
func (db *DB) ListAthletes() ([]*Athlete, error) {
	rows, err := db.conn.Query(`
		SELECT athlete_id, name, email, max_heart_rate, joined_at,
		       access_token, refresh_token, token_expires_at,
		       created_at, updated_at
		FROM athletes
		ORDER BY athlete_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	defer rows.Close()

	var athletes []*Athlete
	for rows.Next() {
		var a Athlete
		var joinedAt, tokenExpiresAt, createdAt, updatedAt int64
		err := rows.Scan(
			&a.AthleteID, &a.Name, &a.Email, &a.MaxHeartRate, &joinedAt,
			&a.AccessToken, &a.RefreshToken, &tokenExpiresAt,
			&createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan athlete: %w", err)
		}
		a.JoinedAt = time.Unix(joinedAt, 0).UTC()
		a.TokenExpiresAt = time.Unix(tokenExpiresAt, 0).UTC()
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		a.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		athletes = append(athletes, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating athletes: %w", err)
	}

	return athletes, nil
}
