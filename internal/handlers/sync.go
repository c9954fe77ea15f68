package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"runleague/internal/database"
	"runleague/internal/strava"
	"runleague/internal/syncer"
)

// SyncRunner runs one sync pass for an athlete. Satisfied by *syncer.Syncer.
type SyncRunner interface {
	Sync(ctx context.Context, athlete *database.Athlete) (*syncer.Report, error)
}

// SyncHandler handles sync pass requests
type SyncHandler struct {
	db     *database.DB
	syncer SyncRunner
	logger *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(db *database.DB, s SyncRunner) *SyncHandler {
	return &SyncHandler{
		db:     db,
		syncer: s,
		logger: slog.Default(),
	}
}

// HandleSync handles POST /sync: one synchronization pass for the athlete
// identified by the session cookie. Responds with the sync report, or a
// single top-level failure when the candidate batch cannot be fetched.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	report, err := h.syncer.Sync(r.Context(), athlete)
	if err != nil {
		h.logger.Error("Sync pass failed", "athlete_id", athleteID, "error", err)
		if strava.IsUnauthorized(err) {
			http.Error(w, "Strava authorization expired, please reconnect", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Sync failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("Failed to encode sync report", "error", err)
	}
}
