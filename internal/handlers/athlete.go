package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"runleague/internal/database"
)

// AthleteHandler serves athlete profile operations
type AthleteHandler struct {
	db     *database.DB
	logger *slog.Logger
}

// NewAthleteHandler creates a new athlete handler
func NewAthleteHandler(db *database.DB) *AthleteHandler {
	return &AthleteHandler{
		db:     db,
		logger: slog.Default(),
	}
}

type maxHeartRateRequest struct {
	MaxHeartRate int `json:"maxHeartRate"`
}

type maxHeartRateResponse struct {
	AthleteID    string `json:"athleteId"`
	MaxHeartRate int    `json:"maxHeartRate"`
}

// HandleMaxHeartRate handles PUT /athlete/max-heart-rate. The new value only
// affects runs scored after the change; committed scores stay as they are.
func (h *AthleteHandler) HandleMaxHeartRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
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

	var req maxHeartRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.MaxHeartRate <= 0 || req.MaxHeartRate > 250 {
		http.Error(w, "maxHeartRate must be between 1 and 250", http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateAthleteMaxHeartRate(athleteID, req.MaxHeartRate); err != nil {
		h.logger.Error("Failed to update max heart rate", "athlete_id", athleteID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Updated max heart rate", "athlete_id", athleteID, "max_heart_rate", req.MaxHeartRate)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(maxHeartRateResponse{
		AthleteID:    athleteID,
		MaxHeartRate: req.MaxHeartRate,
	}); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
