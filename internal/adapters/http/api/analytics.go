package api

import (
	"net/http"

	"github.com/okian/edustream/internal/domain/analytics"
)

// AnalyticsHandler serves the grade summary and the legacy predictor.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleSummary handles GET /api/summary.
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.GradeSummary(r.Context())
	if err != nil {
		writeError(w, Wrap("grade summary", err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// predictRequest requires every input and bounds none of them.
type predictRequest struct {
	Attendance           *float64 `json:"attendance" validate:"required"`
	MidtermScore         *float64 `json:"midterm_score" validate:"required"`
	AssignmentsCompleted *int     `json:"assignments_completed" validate:"required"`
}

// HandlePredictSuccess handles POST /predict_success.
func (h *AnalyticsHandler) HandlePredictSuccess(w http.ResponseWriter, r *http.Request) {
	const op = "predict success"
	var req predictRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateBody(op, req); err != nil {
		writeError(w, err)
		return
	}
	in := analytics.SuccessInput{
		Attendance:           *req.Attendance,
		MidtermScore:         *req.MidtermScore,
		AssignmentsCompleted: *req.AssignmentsCompleted,
	}
	writeJSON(w, http.StatusOK, h.deps.PredictSuccess(r.Context(), in))
}
