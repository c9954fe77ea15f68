package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"runleague/internal/database"
)

// ActivitiesHandler serves an athlete's committed, scored runs
type ActivitiesHandler struct {
	db     *database.DB
	logger *slog.Logger
}

// NewActivitiesHandler creates a new activities handler
func NewActivitiesHandler(db *database.DB) *ActivitiesHandler {
	return &ActivitiesHandler{
		db:     db,
		logger: slog.Default(),
	}
}

type runResponse struct {
	ID                int64    `json:"id"`
	StravaActivityID  string   `json:"stravaActivityId"`
	Name              string   `json:"name"`
	StartDate         string   `json:"startDate"`
	DistanceMeters    float64  `json:"distanceMeters"`
	MovingTimeSeconds int64    `json:"movingTimeSeconds"`
	AverageHeartRate  *float64 `json:"averageHeartrate"`
	DistanceScore     float64  `json:"distanceScore"`
	HeartRateScore    float64  `json:"heartrateScore"`
	ConsistencyBonus  float64  `json:"consistencyBonus"`
	TotalScore        float64  `json:"totalScore"`
}

// HandleActivities handles GET /activities: the session athlete's runs,
// most recent first. Supports ?limit= and ?offset= pagination.
func (h *ActivitiesHandler) HandleActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	athleteID := athleteIDFromRequest(r)
	if athleteID == "" {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	athlete, err := h.db.GetAthlete(athleteID)
	if err != nil {
		h.logger.Error("Failed to load athlete", "athlete_id", athleteID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if athlete == nil {
		http.Error(w, "Athlete not found", http.StatusNotFound)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	runs, err := h.db.ListRunsByAthlete(athleteID, offset, limit)
	if err != nil {
		h.logger.Error("Failed to list runs", "athlete_id", athleteID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResponse{
			ID:                run.ID,
			StravaActivityID:  run.StravaActivityID,
			Name:              run.Name,
			StartDate:         run.StartDate.UTC().Format(time.RFC3339),
			DistanceMeters:    run.DistanceMeters,
			MovingTimeSeconds: run.MovingTimeSeconds,
			AverageHeartRate:  run.AverageHeartRate,
			DistanceScore:     run.DistanceScore,
			HeartRateScore:    run.HeartRateScore,
			ConsistencyBonus:  run.ConsistencyBonus,
			TotalScore:        run.TotalScore,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode activities", "error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
