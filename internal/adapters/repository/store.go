// Package repository is the data access layer for students and their
// attendance and assignment history.
package repository

import (
	"context"

	"github.com/okian/edustream/internal/domain/model"
)

// StudentStore reads and writes the student directory.
type StudentStore interface {
	// CreateStudent inserts s. Returns ErrAlreadyExists when the id is taken.
	CreateStudent(ctx context.Context, s model.Student) error

	// GetStudent returns ErrNotFound for unknown ids.
	GetStudent(ctx context.Context, id string) (model.Student, error)

	// ListStudents returns students in creation order.
	ListStudents(ctx context.Context) ([]model.Student, error)

	CountStudents(ctx context.Context) (int, error)
}

// RecordStore holds immutable attendance and assignment records.
type RecordStore interface {
	// AddAttendance stores rec. Returns ErrAlreadyExists when rec.ID is stored;
	// the existing record is never overwritten.
	AddAttendance(ctx context.Context, rec model.AttendanceRecord) error

	// AddAssignment stores rec with the same immutability rule as AddAttendance.
	AddAssignment(ctx context.Context, rec model.AssignmentRecord) error

	// FetchAttendance returns all attendance for a student ordered by date, then id.
	// An unknown student yields an empty slice.
	FetchAttendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)

	// FetchAssignments returns all assignments for a student ordered by due date, then id.
	FetchAssignments(ctx context.Context, studentID string) ([]model.AssignmentRecord, error)

	// AllGrades returns every stored assignment grade, in no particular order.
	AllGrades(ctx context.Context) ([]int, error)
}

// Store is the full data access layer.
type Store interface {
	StudentStore
	RecordStore

	Close() error
}
