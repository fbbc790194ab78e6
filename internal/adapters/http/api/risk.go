package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/edustream/internal/domain/risk"
)

const defaultWatchlistLimit = 10

type factorsResponse struct {
	Attendance      float64 `json:"attendance"`
	Academic        float64 `json:"academic"`
	Speed           float64 `json:"speed"`
	SubmissionDelta float64 `json:"submission_delta_days"`
}

type riskResponse struct {
	StudentID string          `json:"student_id"`
	Name      string          `json:"name,omitempty"`
	Score     int             `json:"score"`
	Risk      string          `json:"risk"`
	Factors   factorsResponse `json:"factors"`
	Insights  string          `json:"insights"`
}

func toRiskResponse(a risk.Assessment) riskResponse {
	return riskResponse{
		StudentID: a.StudentID,
		Score:     a.Score,
		Risk:      string(a.Level),
		Factors: factorsResponse{
			Attendance:      a.Factors.AttendanceRate,
			Academic:        a.Factors.AcademicAverage,
			Speed:           a.Factors.SpeedScore,
			SubmissionDelta: a.Factors.SubmissionDelta,
		},
		Insights: a.Insight,
	}
}

// RiskHandler serves per-student assessments and the watchlist.
type RiskHandler struct {
	deps RiskDependencies
}

// NewRiskHandler creates a new risk handler.
func NewRiskHandler(deps RiskDependencies) *RiskHandler {
	return &RiskHandler{deps: deps}
}

// HandleStudentRisk handles GET /api/students/{id}/risk.
func (h *RiskHandler) HandleStudentRisk(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.ComputeRisk(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap("compute risk", err))
		return
	}
	writeJSON(w, http.StatusOK, toRiskResponse(a))
}

// HandleWatchlist handles GET /api/risk?limit=N.
func (h *RiskHandler) HandleWatchlist(w http.ResponseWriter, r *http.Request) {
	const op = "watchlist"
	limit := min(defaultWatchlistLimit, h.deps.MaxWatchlistLimit())
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.deps.MaxWatchlistLimit() {
			writeError(w, WrapKind(op, ErrBadRequest,
				fmt.Errorf("limit must be between 1 and %d", h.deps.MaxWatchlistLimit())))
			return
		}
		limit = n
	}

	entries, err := h.deps.Watchlist(r.Context(), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	out := make([]riskResponse, 0, len(entries))
	for _, e := range entries {
		rr := toRiskResponse(e.Assessment)
		rr.Name = e.Name
		out = append(out, rr)
	}
	writeJSON(w, http.StatusOK, out)
}
