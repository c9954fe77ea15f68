package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"runleague/internal/leaderboard"
)

// LeaderboardHandler serves the ranked standings
type LeaderboardHandler struct {
	aggregator *leaderboard.Aggregator
	logger     *slog.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(aggregator *leaderboard.Aggregator) *LeaderboardHandler {
	return &LeaderboardHandler{
		aggregator: aggregator,
		logger:     slog.Default(),
	}
}

// HandleLeaderboard handles GET /leaderboard
func (h *LeaderboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := h.aggregator.Standings()
	if err != nil {
		h.logger.Error("Failed to compute standings", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.logger.Error("Failed to encode leaderboard", "error", err)
	}
}
