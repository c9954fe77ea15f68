// Package syncer drives one synchronization pass for one athlete: it fetches
// candidate activities from Strava, filters and orders them, scores the new
// ones, and commits them to the ledger exactly once.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"runleague/internal/database"
	"runleague/internal/metrics"
	"runleague/internal/score"
	"runleague/internal/strava"
	"runleague/internal/week"
)

// Ledger is the durable, uniqueness-enforcing store of committed runs.
// Satisfied by *database.DB.
type Ledger interface {
	RunExists(stravaActivityID string) (bool, error)
	InsertRun(r *database.Run) error
	TotalScore(athleteID string) (float64, error)
	CountRunsInWeek(athleteID string, weekStart, before time.Time) (int, error)
}

// Source lists candidate activities from the external provider.
// Satisfied by *strava.Client.
type Source interface {
	ListActivities(ctx context.Context, creds strava.Credentials, store strava.TokenStore, page, perPage int) ([]strava.Activity, bool, error)
}

// Report summarizes one sync pass
type Report struct {
	NewRuns     int     `json:"newRuns"`
	SkippedRuns int     `json:"skippedRuns"`
	TotalScore  float64 `json:"totalScore"`
}

// Syncer orchestrates sync passes. Stateless between passes: all durable
// state lives in the ledger, so concurrent passes for the same athlete are
// safe as long as the ledger enforces uniqueness on commit.
type Syncer struct {
	ledger  Ledger
	source  Source
	tokens  strava.TokenStore
	logger  *slog.Logger
	perPage int
}

// New creates a Syncer with injected collaborators
func New(ledger Ledger, source Source, tokens strava.TokenStore) *Syncer {
	return &Syncer{
		ledger:  ledger,
		source:  source,
		tokens:  tokens,
		logger:  slog.Default(),
		perPage: 100,
	}
}

// Sync runs one pass for the athlete. A fetch failure aborts the pass before
// anything is written; a failure committing one candidate is logged and the
// pass continues with the next.
func (s *Syncer) Sync(ctx context.Context, athlete *database.Athlete) (*Report, error) {
	start := time.Now()
	logger := s.logger.With("sync_id", uuid.NewString(), "athlete_id", athlete.AthleteID)

	logger.Info("Starting sync pass", "joined_at", athlete.JoinedAt)

	candidates, err := s.fetchAll(ctx, athlete)
	if err != nil {
		metrics.SyncPassesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	eligible := filterEligible(candidates, athlete.JoinedAt)
	metrics.SyncCandidatesTotal.WithLabelValues(metrics.OutcomeFiltered).Add(float64(len(candidates) - len(eligible)))

	logger.Info("Fetched candidate activities",
		"total", len(candidates),
		"eligible", len(eligible))

	// Ascending start-time order is required for the consistency bonus: the
	// ordinal position of each run counts only already-committed runs, so a
	// batch holding three same-week runs awards the bonus to the third only
	// when they commit oldest-first.
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].StartDate.Before(eligible[j].StartDate)
	})

	report := &Report{}
	for _, activity := range eligible {
		outcome, err := s.processCandidate(athlete, activity)
		if err != nil {
			// Partial-failure policy: one bad record never blocks the batch
			logger.Error("Failed to commit run, skipping",
				"activity_id", activity.ID,
				"error", err)
			metrics.SyncCandidatesTotal.WithLabelValues(metrics.OutcomeError).Inc()
			continue
		}

		metrics.SyncCandidatesTotal.WithLabelValues(outcome).Inc()
		switch outcome {
		case metrics.OutcomeNew:
			report.NewRuns++
		case metrics.OutcomeDuplicate:
			report.SkippedRuns++
		}
	}

	// Re-query rather than accumulate in memory so the reported total agrees
	// with whatever concurrent passes committed meanwhile.
	total, err := s.ledger.TotalScore(athlete.AthleteID)
	if err != nil {
		metrics.SyncPassesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to get total score: %w", err)
	}
	report.TotalScore = total

	metrics.SyncPassesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.SyncPassDuration.Observe(time.Since(start).Seconds())

	logger.Info("Sync pass complete",
		"new_runs", report.NewRuns,
		"skipped_runs", report.SkippedRuns,
		"total_score", report.TotalScore,
		"duration_ms", time.Since(start).Milliseconds())

	return report, nil
}

// fetchAll pages through the athlete's activities. Any page failure aborts
// the whole fetch: nothing has been committed yet at that point.
func (s *Syncer) fetchAll(ctx context.Context, athlete *database.Athlete) ([]strava.Activity, error) {
	creds := strava.Credentials{
		AthleteID:      athlete.AthleteID,
		AccessToken:    athlete.AccessToken,
		RefreshToken:   athlete.RefreshToken,
		TokenExpiresAt: athlete.TokenExpiresAt,
	}

	var all []strava.Activity
	for page := 1; ; page++ {
		activities, hasMore, err := s.source.ListActivities(ctx, creds, s.tokens, page, s.perPage)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, activities...)
		if !hasMore {
			return all, nil
		}
	}
}

// filterEligible keeps runs that started strictly after the athlete joined.
// Activities at or before the join instant predate competition eligibility.
func filterEligible(activities []strava.Activity, joinedAt time.Time) []strava.Activity {
	var eligible []strava.Activity
	for _, a := range activities {
		if a.Type == "Run" && a.StartDate.After(joinedAt) {
			eligible = append(eligible, a)
		}
	}
	return eligible
}

// processCandidate commits one candidate activity. Returns the outcome label:
// new, or duplicate when the run was already committed (either seen by the
// existence pre-check or lost to a concurrent pass at insert time).
func (s *Syncer) processCandidate(athlete *database.Athlete, activity strava.Activity) (string, error) {
	externalID := fmt.Sprintf("%d", activity.ID)

	exists, err := s.ledger.RunExists(externalID)
	if err != nil {
		return "", err
	}
	if exists {
		return metrics.OutcomeDuplicate, nil
	}

	weekStart := week.Start(activity.StartDate)
	ordinal, err := s.ledger.CountRunsInWeek(athlete.AthleteID, weekStart, activity.StartDate)
	if err != nil {
		return "", err
	}

	breakdown := score.Calculate(
		activity.Distance,
		activity.MovingTime,
		activity.AverageHeartRate,
		athlete.MaxHeartRate,
		ordinal,
	)

	run := &database.Run{
		StravaActivityID:  externalID,
		AthleteID:         athlete.AthleteID,
		Name:              activity.Name,
		StartDate:         activity.StartDate,
		DistanceMeters:    activity.Distance,
		MovingTimeSeconds: activity.MovingTime,
		AverageHeartRate:  activity.AverageHeartRate,
		DistanceScore:     breakdown.DistanceScore,
		HeartRateScore:    breakdown.HeartRateScore,
		ConsistencyBonus:  breakdown.ConsistencyBonus,
		TotalScore:        breakdown.TotalScore,
	}

	if err := s.ledger.InsertRun(run); err != nil {
		if errors.Is(err, database.ErrDuplicateRun) {
			// Lost the race to a concurrent pass; the unique index held
			return metrics.OutcomeDuplicate, nil
		}
		return "", err
	}

	if breakdown.ConsistencyBonus > 0 {
		metrics.ConsistencyBonusesAwarded.Inc()
	}

	return metrics.OutcomeNew, nil
}
