package api

import (
	"context"
	"net/http"

	service "github.com/okian/edustream/internal/app"
)

// StatsProvider reports dashboard cards and pipeline state.
type StatsProvider interface {
	DashboardStats(ctx context.Context) ([]service.StatCard, error)
	GetStats(ctx context.Context) service.Stats
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleDashboardStats handles GET /api/stats.
func (h *StatsHandler) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	cards, err := h.provider.DashboardStats(r.Context())
	if err != nil {
		writeError(w, Wrap("dashboard stats", err))
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// HandleRuntimeStats handles GET /stats.
func (h *StatsHandler) HandleRuntimeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.GetStats(r.Context()))
}
