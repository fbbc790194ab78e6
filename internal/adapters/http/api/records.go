package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	service "github.com/okian/edustream/internal/app"
	"github.com/okian/edustream/internal/domain/model"
)

// recordNamespace derives stable ids for records posted without one, so a
// resubmitted payload still deduplicates.
var recordNamespace = uuid.MustParse("5f1c3e0a-8d9b-4f62-9a57-2e1c0b7d4a91")

// Accepted date layouts, most specific first.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

type attendanceRequest struct {
	ID        string `json:"id" validate:"max=128"`
	StudentID string `json:"student_id" validate:"required,max=128"`
	Date      string `json:"date" validate:"required"`
	Presence  string `json:"presence" validate:"required"`
}

type assignmentRequest struct {
	ID          string `json:"id" validate:"max=128"`
	StudentID   string `json:"student_id" validate:"required,max=128"`
	Title       string `json:"title" validate:"required,max=200"`
	Grade       *int   `json:"grade" validate:"required,gte=0,lte=100"`
	DueDate     string `json:"due_date" validate:"required"`
	SubmittedAt string `json:"submitted_at" validate:"required"`
}

type submitResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// RecordsHandler ingests attendance and assignment records.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandlePostAttendance handles POST /api/attendance.
func (h *RecordsHandler) HandlePostAttendance(w http.ResponseWriter, r *http.Request) {
	const op = "post attendance"
	var req attendanceRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateBody(op, req); err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("date: %w", err)))
		return
	}
	presence, err := model.ParsePresence(req.Presence)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec := model.AttendanceRecord{
		ID:        strings.TrimSpace(req.ID),
		StudentID: strings.TrimSpace(req.StudentID),
		Date:      date,
		Presence:  presence,
	}
	if rec.ID == "" {
		rec.ID = derivedID(model.KindAttendance, rec.StudentID, date.Format(time.RFC3339Nano))
	}
	h.submit(w, r, op, model.AttendanceEvent(rec))
}

// HandlePostAssignment handles POST /api/assignments.
func (h *RecordsHandler) HandlePostAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "post assignment"
	var req assignmentRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateBody(op, req); err != nil {
		writeError(w, err)
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("due_date: %w", err)))
		return
	}
	submitted, err := parseDate(req.SubmittedAt)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("submitted_at: %w", err)))
		return
	}
	rec := model.AssignmentRecord{
		ID:          strings.TrimSpace(req.ID),
		StudentID:   strings.TrimSpace(req.StudentID),
		Title:       strings.TrimSpace(req.Title),
		Grade:       *req.Grade,
		DueDate:     due,
		SubmittedAt: submitted,
	}
	if rec.ID == "" {
		rec.ID = derivedID(model.KindAssignment, rec.StudentID, rec.Title, due.Format(time.RFC3339))
	}
	h.submit(w, r, op, model.AssignmentEvent(rec))
}

func (h *RecordsHandler) submit(w http.ResponseWriter, r *http.Request, op string, rec model.Record) {
	outcome, err := h.deps.SubmitRecord(r.Context(), rec)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if outcome == service.Duplicate {
		writeJSON(w, http.StatusOK, submitResponse{Status: outcome.String(), ID: rec.ID(), Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{Status: outcome.String(), ID: rec.ID()})
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339 or YYYY-MM-DD", s)
}

func derivedID(kind model.RecordKind, parts ...string) string {
	name := string(kind) + "|" + strings.Join(parts, "|")
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}
