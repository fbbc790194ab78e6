package api

import (
	"net/http"
	"strings"

	service "github.com/okian/edustream/internal/app"
)

// StudentsHandler serves the student directory and raw record views.
type StudentsHandler struct {
	deps StudentDependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps StudentDependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleList handles GET /api/students.
func (h *StudentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	students, err := h.deps.ListStudents(r.Context())
	if err != nil {
		writeError(w, Wrap("list students", err))
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// HandleCreate handles POST /api/students.
func (h *StudentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "create student"
	var in service.NewStudent
	if err := decodeJSON(op, r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Major = strings.TrimSpace(in.Major)
	in.Status = strings.TrimSpace(in.Status)
	in.Year = strings.TrimSpace(in.Year)
	if err := validateBody(op, in); err != nil {
		writeError(w, err)
		return
	}
	student, err := h.deps.CreateStudent(r.Context(), in)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/api/students/"+student.ID)
	writeJSON(w, http.StatusCreated, student)
}

// HandleGet handles GET /api/students/{id}.
func (h *StudentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	student, err := h.deps.GetStudent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap("get student", err))
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// HandleAttendance handles GET /api/students/{id}/attendance.
func (h *StudentsHandler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.FetchAttendance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap("fetch attendance", err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleAssignments handles GET /api/students/{id}/assignments.
func (h *StudentsHandler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.FetchAssignments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap("fetch assignments", err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}
