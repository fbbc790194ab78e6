package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/pkg/metrics"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	students     map[string]model.Student
	studentOrder []string

	attendanceIDs map[string]struct{}
	assignmentIDs map[string]struct{}
	attendance    map[string][]model.AttendanceRecord // by student id
	assignments   map[string][]model.AssignmentRecord // by student id

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		students:      make(map[string]model.Student),
		attendanceIDs: make(map[string]struct{}),
		assignmentIDs: make(map[string]struct{}),
		attendance:    make(map[string][]model.AttendanceRecord),
		assignments:   make(map[string][]model.AssignmentRecord),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateStudent(_ context.Context, st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[st.ID]; ok {
		return fmt.Errorf("student %s: %w", st.ID, ErrAlreadyExists)
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now().UTC()
	}
	s.students[st.ID] = st
	s.studentOrder = append(s.studentOrder, st.ID)
	metrics.UpdateTotalStudents(len(s.students))
	return nil
}

func (s *MemoryStore) GetStudent(_ context.Context, id string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return model.Student{}, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	return st, nil
}

func (s *MemoryStore) ListStudents(_ context.Context) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, 0, len(s.studentOrder))
	for _, id := range s.studentOrder {
		out = append(out, s.students[id])
	}
	return out, nil
}

func (s *MemoryStore) CountStudents(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students), nil
}

func (s *MemoryStore) AddAttendance(_ context.Context, rec model.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attendanceIDs[rec.ID]; ok {
		return fmt.Errorf("attendance %s: %w", rec.ID, ErrAlreadyExists)
	}
	s.attendanceIDs[rec.ID] = struct{}{}
	s.attendance[rec.StudentID] = append(s.attendance[rec.StudentID], rec)
	return nil
}

func (s *MemoryStore) AddAssignment(_ context.Context, rec model.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assignmentIDs[rec.ID]; ok {
		return fmt.Errorf("assignment %s: %w", rec.ID, ErrAlreadyExists)
	}
	s.assignmentIDs[rec.ID] = struct{}{}
	s.assignments[rec.StudentID] = append(s.assignments[rec.StudentID], rec)
	return nil
}

func (s *MemoryStore) FetchAttendance(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("fetch_attendance", sinceMs(start)) }()

	s.mu.RLock()
	out := slices.Clone(s.attendance[studentID])
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.AttendanceRecord) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if out == nil {
		out = []model.AttendanceRecord{}
	}
	return out, nil
}

func (s *MemoryStore) FetchAssignments(_ context.Context, studentID string) ([]model.AssignmentRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("fetch_assignments", sinceMs(start)) }()

	s.mu.RLock()
	out := slices.Clone(s.assignments[studentID])
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.AssignmentRecord) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if out == nil {
		out = []model.AssignmentRecord{}
	}
	return out, nil
}

func (s *MemoryStore) AllGrades(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grades := make([]int, 0, len(s.assignmentIDs))
	for _, recs := range s.assignments {
		for _, r := range recs {
			grades = append(grades, r.Grade)
		}
	}
	return grades, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
