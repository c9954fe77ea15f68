package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ErrDuplicateRun is returned by InsertRun when a run with the same Strava
// activity ID is already committed. Callers treat this as an expected no-op,
// not a failure: it is how a lost race between concurrent syncs surfaces.
var ErrDuplicateRun = errors.New("run already exists")

// Run represents one committed, scored activity. Rows are never mutated
// after insertion.
type Run struct {
	ID                int64
	StravaActivityID  string
	AthleteID         string
	Name              string
	StartDate         time.Time
	DistanceMeters    float64
	MovingTimeSeconds int64
	AverageHeartRate  *float64
	DistanceScore     float64
	HeartRateScore    float64
	ConsistencyBonus  float64
	TotalScore        float64
	CreatedAt         time.Time
}

// RunExists reports whether a run with the given Strava activity ID has been
// committed. This is the cheap idempotency pre-check; the unique index on
// strava_activity_id is what actually closes the race.
func (db *DB) RunExists(stravaActivityID string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`
		SELECT 1 FROM runs WHERE strava_activity_id = ?
	`, stravaActivityID).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check run existence: %w", err)
	}
	return true, nil
}

// InsertRun commits a new scored run. A unique-constraint violation on the
// Strava activity ID is reported as ErrDuplicateRun.
func (db *DB) InsertRun(r *Run) error {
	r.CreatedAt = time.Now()

	result, err := db.conn.Exec(`
		INSERT INTO runs (
			strava_activity_id, athlete_id, name, start_date,
			distance_meters, moving_time_seconds, average_heartrate,
			distance_score, heartrate_score, consistency_bonus, total_score,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.StravaActivityID, r.AthleteID, r.Name, r.StartDate.Unix(),
		r.DistanceMeters, r.MovingTimeSeconds, r.AverageHeartRate,
		r.DistanceScore, r.HeartRateScore, r.ConsistencyBonus, r.TotalScore,
		r.CreatedAt.Unix())

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRun
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id

	return nil
}

// TotalScore sums total_score across all of an athlete's runs; 0 when none.
func (db *DB) TotalScore(athleteID string) (float64, error) {
	var total float64
	err := db.conn.QueryRow(`
		SELECT COALESCE(SUM(total_score), 0) FROM runs WHERE athlete_id = ?
	`, athleteID).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("failed to get total score: %w", err)
	}
	return total, nil
}

// CountRuns returns the number of committed runs for an athlete
func (db *DB) CountRuns(athleteID string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM runs WHERE athlete_id = ?
	`, athleteID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// CountRunsInWeek counts an athlete's committed runs with start_date in
// [weekStart, before). Used to compute the zero-based ordinal position of a
// run within its week: the count of earlier runs in the same week.
func (db *DB) CountRunsInWeek(athleteID string, weekStart, before time.Time) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM runs
		WHERE athlete_id = ? AND start_date >= ? AND start_date < ?
	`, athleteID, weekStart.Unix(), before.Unix()).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count runs in week: %w", err)
	}
	return count, nil
}

// ListRunsByAthlete returns an athlete's runs most-recent-start-first,
// with optional pagination (limit 0 means no limit).
func (db *DB) ListRunsByAthlete(athleteID string, offset, limit int) ([]*Run, error) {
	query := `
		SELECT id, strava_activity_id, athlete_id, name, start_date,
		       distance_meters, moving_time_seconds, average_heartrate,
		       distance_score, heartrate_score, consistency_bonus, total_score,
		       created_at
		FROM runs
		WHERE athlete_id = ?
		ORDER BY start_date DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := db.conn.Query(query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var startDate, createdAt int64
		err := rows.Scan(
			&r.ID, &r.StravaActivityID, &r.AthleteID, &r.Name, &startDate,
			&r.DistanceMeters, &r.MovingTimeSeconds, &r.AverageHeartRate,
			&r.DistanceScore, &r.HeartRateScore, &r.ConsistencyBonus, &r.TotalScore,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartDate = time.Unix(startDate, 0).UTC()
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlitelib.SQLITE_CONSTRAINT
}
