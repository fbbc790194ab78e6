// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Presence is the outcome of one attendance check.
type Presence string

// Presence values.
const (
	Present Presence = "Present"
	Absent  Presence = "Absent"
)

// ParsePresence accepts "present"/"absent" in any case.
func ParsePresence(s string) (Presence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return Present, nil
	case "absent":
		return Absent, nil
	default:
		return "", fmt.Errorf("unknown presence %q", s)
	}
}

// Student is a directory entry shown on the dashboard.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Major     string    `json:"major"`
	Status    string    `json:"status"`
	Year      string    `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is one immutable attendance check for a student.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Presence  Presence  `json:"presence"`
}

// AssignmentRecord is one immutable graded submission.
type AssignmentRecord struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Title       string    `json:"title"`
	Grade       int       `json:"grade"` // 0-100
	DueDate     time.Time `json:"due_date"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RecordKind tags what a queued Record carries.
type RecordKind string

// Record kinds.
const (
	KindAttendance RecordKind = "attendance"
	KindAssignment RecordKind = "assignment"
)

// Record is the unit flowing through the ingestion queue. Exactly one of
// Attendance or Assignment is set, matching Kind.
type Record struct {
	Kind       RecordKind
	Attendance *AttendanceRecord
	Assignment *AssignmentRecord
}

// ID returns the id of the carried record.
func (r Record) ID() string {
	switch {
	case r.Kind == KindAttendance && r.Attendance != nil:
		return r.Attendance.ID
	case r.Kind == KindAssignment && r.Assignment != nil:
		return r.Assignment.ID
	}
	return ""
}

// StudentID returns the student the carried record belongs to.
func (r Record) StudentID() string {
	switch {
	case r.Kind == KindAttendance && r.Attendance != nil:
		return r.Attendance.StudentID
	case r.Kind == KindAssignment && r.Assignment != nil:
		return r.Assignment.StudentID
	}
	return ""
}

// DedupeKey namespaces the record id by kind so both kinds may share ids.
func (r Record) DedupeKey() string {
	return string(r.Kind) + ":" + r.ID()
}

// AttendanceEvent wraps an attendance record for the queue.
func AttendanceEvent(rec AttendanceRecord) Record {
	return Record{Kind: KindAttendance, Attendance: &rec}
}

// AssignmentEvent wraps an assignment record for the queue.
func AssignmentEvent(rec AssignmentRecord) Record {
	return Record{Kind: KindAssignment, Assignment: &rec}
}
