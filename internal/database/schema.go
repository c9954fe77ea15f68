package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Athletes table: Strava users who have connected to the competition
CREATE TABLE IF NOT EXISTS athletes (
    athlete_id TEXT PRIMARY KEY,  -- Strava athlete ID

    name TEXT,
    email TEXT,

    -- Scoring parameters
    max_heart_rate INTEGER NOT NULL DEFAULT 190,

    -- Competition eligibility: runs at or before this instant are never scored
    joined_at INTEGER NOT NULL,

    -- OAuth tokens
    access_token TEXT NOT NULL DEFAULT '',
    refresh_token TEXT NOT NULL DEFAULT '',
    token_expires_at INTEGER NOT NULL DEFAULT 0,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Runs table: committed, scored activities. One row per Strava activity,
-- enforced by the unique index below so concurrent syncs cannot double-commit.
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    strava_activity_id TEXT NOT NULL,
    athlete_id TEXT NOT NULL,

    name TEXT NOT NULL DEFAULT '',
    start_date INTEGER NOT NULL,  -- Unix timestamp
    distance_meters REAL NOT NULL,
    moving_time_seconds INTEGER NOT NULL,
    average_heartrate REAL,  -- NULL when the activity has no heart-rate data

    -- Score breakdown, all rounded to 2 decimals
    distance_score REAL NOT NULL,
    heartrate_score REAL NOT NULL,
    consistency_bonus REAL NOT NULL,
    total_score REAL NOT NULL,

    created_at INTEGER NOT NULL,

    FOREIGN KEY (athlete_id) REFERENCES athletes(athlete_id) ON DELETE CASCADE
);

-- Idempotency gate: at most one run per Strava activity, globally
CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_strava_activity_id ON runs(strava_activity_id);

-- Indexes for runs table
CREATE INDEX IF NOT EXISTS idx_runs_athlete_id ON runs(athlete_id);
CREATE INDEX IF NOT EXISTS idx_runs_athlete_start ON runs(athlete_id, start_date DESC);
`
