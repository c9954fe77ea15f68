package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"runleague/internal/database"
)

// HealthHandler reports service liveness and database reachability
type HealthHandler struct {
	db     *database.DB
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: slog.Default(),
	}
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ok"
	code := http.StatusOK
	if err := h.db.Health(); err != nil {
		h.logger.Error("Health check failed", "error", err)
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
