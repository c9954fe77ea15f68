// Package leaderboard derives ranked standings from committed run scores.
// Read-only: it never writes to the store.
package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"runleague/internal/database"
	"runleague/internal/metrics"
)

// Store is the read surface the aggregator needs. Satisfied by *database.DB.
type Store interface {
	ListAthletes() ([]*database.Athlete, error)
	TotalScore(athleteID string) (float64, error)
	CountRuns(athleteID string) (int, error)
}

// Entry is one leaderboard row; rank is implied by position (1-based)
type Entry struct {
	AthleteID  string  `json:"athleteId"`
	Name       string  `json:"name"`
	TotalScore float64 `json:"totalScore"`
	RunCount   int     `json:"runCount"`
}

// Aggregator computes standings over the run ledger
type Aggregator struct {
	store Store
}

// New creates an Aggregator over the given store
func New(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Standings returns all athletes ranked by total score, highest first.
// Ties break on athlete ID ascending so the order is deterministic across
// runs.
func (a *Aggregator) Standings() ([]Entry, error) {
	athletes, err := a.store.ListAthletes()
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}

	entries := make([]Entry, 0, len(athletes))
	for _, athlete := range athletes {
		total, err := a.store.TotalScore(athlete.AthleteID)
		if err != nil {
			return nil, fmt.Errorf("failed to get total score for athlete %s: %w", athlete.AthleteID, err)
		}
		count, err := a.store.CountRuns(athlete.AthleteID)
		if err != nil {
			return nil, fmt.Errorf("failed to count runs for athlete %s: %w", athlete.AthleteID, err)
		}

		entries = append(entries, Entry{
			AthleteID:  athlete.AthleteID,
			Name:       displayName(athlete),
			TotalScore: math.Round(total*100) / 100,
			RunCount:   count,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].AthleteID < entries[j].AthleteID
	})

	metrics.LeaderboardAthletes.Set(float64(len(entries)))

	return entries, nil
}

func displayName(a *database.Athlete) string {
	if a.Name != nil && *a.Name != "" {
		return *a.Name
	}
	return "Athlete " + a.AthleteID
}
