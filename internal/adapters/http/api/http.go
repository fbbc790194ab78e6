// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/edustream/internal/app"
	"github.com/okian/edustream/internal/domain/analytics"
	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/internal/domain/risk"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	StudentDependencies
	RiskDependencies
	RecordDependencies
	StatsProvider
	AnalyticsDependencies
}

// StudentDependencies backs the student directory routes.
type StudentDependencies interface {
	ListStudents(ctx context.Context) ([]model.Student, error)
	CreateStudent(ctx context.Context, in service.NewStudent) (model.Student, error)
	GetStudent(ctx context.Context, id string) (model.Student, error)
	FetchAttendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
	FetchAssignments(ctx context.Context, studentID string) ([]model.AssignmentRecord, error)
}

// RiskDependencies backs the risk routes.
type RiskDependencies interface {
	ComputeRisk(ctx context.Context, studentID string) (risk.Assessment, error)
	Watchlist(ctx context.Context, limit int) ([]service.WatchlistEntry, error)
	MaxWatchlistLimit() int
}

// RecordDependencies backs record ingestion.
type RecordDependencies interface {
	SubmitRecord(ctx context.Context, r model.Record) (service.SubmitOutcome, error)
}

// AnalyticsDependencies backs the summary and legacy predictor routes.
type AnalyticsDependencies interface {
	GradeSummary(ctx context.Context) (analytics.Summary, error)
	PredictSuccess(ctx context.Context, in analytics.SuccessInput) analytics.SuccessPrediction
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	studentsHandler  *StudentsHandler
	riskHandler      *RiskHandler
	recordsHandler   *RecordsHandler
	analyticsHandler *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		studentsHandler:  NewStudentsHandler(deps),
		riskHandler:      NewRiskHandler(deps),
		recordsHandler:   NewRecordsHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET /healthz", "healthz", s.healthHandler.HandleHealth},
		{"GET /stats", "stats", s.statsHandler.HandleRuntimeStats},

		{"GET /api/students", "students", s.studentsHandler.HandleList},
		{"POST /api/students", "students", s.studentsHandler.HandleCreate},
		{"GET /api/students/{id}", "student", s.studentsHandler.HandleGet},
		{"GET /api/students/{id}/attendance", "student_attendance", s.studentsHandler.HandleAttendance},
		{"GET /api/students/{id}/assignments", "student_assignments", s.studentsHandler.HandleAssignments},
		{"GET /api/students/{id}/risk", "student_risk", s.riskHandler.HandleStudentRisk},
		{"GET /api/risk", "watchlist", s.riskHandler.HandleWatchlist},

		{"POST /api/attendance", "attendance", s.recordsHandler.HandlePostAttendance},
		{"POST /api/assignments", "assignments", s.recordsHandler.HandlePostAssignment},

		{"GET /api/stats", "dashboard_stats", s.statsHandler.HandleDashboardStats},
		{"GET /api/summary", "summary", s.analyticsHandler.HandleSummary},
		{"POST /predict_success", "predict_success", s.analyticsHandler.HandlePredictSuccess},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, MetricsMiddleware(rt.handler, rt.endpoint))
	}
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Message = http.StatusText(status)
	}
	var fe *fieldError
	if errors.As(err, &fe) {
		resp.Fields = fe.fields
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads one JSON object into dst, rejecting unknown fields and trailing data.
func decodeJSON(op string, r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return WrapKind(op, ErrBadRequest, fmt.Errorf("invalid json: %w", err))
	}
	if dec.More() {
		return NewKind(op, ErrBadRequest)
	}
	return nil
}
