package service

import (
	"context"
	"fmt"

	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/pkg/logger"
)

// NewStudent is the input to CreateStudent.
type NewStudent struct {
	Name   string `json:"name" validate:"required,max=200"`
	Major  string `json:"major" validate:"required,max=200"`
	Status string `json:"status" validate:"required,max=50"`
	Year   string `json:"year" validate:"required,max=50"`
}

// ListStudents returns the directory in creation order.
func (s *Service) ListStudents(ctx context.Context) ([]model.Student, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.ListStudents(ctx)
}

// CreateStudent assigns an id and stores the student.
func (s *Service) CreateStudent(ctx context.Context, in NewStudent) (model.Student, error) {
	st, err := s.running()
	if err != nil {
		return model.Student{}, err
	}
	student := model.Student{
		ID:        s.newID(),
		Name:      in.Name,
		Major:     in.Major,
		Status:    in.Status,
		Year:      in.Year,
		CreatedAt: s.now().UTC(),
	}
	if err := st.CreateStudent(ctx, student); err != nil {
		return model.Student{}, fmt.Errorf("create student: %w", err)
	}
	s.logger.Info(ctx, "student created", logger.String("student_id", student.ID))
	return student, nil
}

// GetStudent returns repository.ErrNotFound for unknown ids.
func (s *Service) GetStudent(ctx context.Context, id string) (model.Student, error) {
	st, err := s.running()
	if err != nil {
		return model.Student{}, err
	}
	return st.GetStudent(ctx, id)
}

// FetchAttendance lists a student's attendance; unknown students yield an empty list.
func (s *Service) FetchAttendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.FetchAttendance(ctx, studentID)
}

// FetchAssignments lists a student's assignments; unknown students yield an empty list.
func (s *Service) FetchAssignments(ctx context.Context, studentID string) ([]model.AssignmentRecord, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.FetchAssignments(ctx, studentID)
}
