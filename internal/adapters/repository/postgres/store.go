package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/pkg/metrics"
)

// Store implements repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New connects, migrates, and returns a ready Store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an already migrated pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (s *Store) CreateStudent(ctx context.Context, st model.Student) error {
	defer observe("create_student", time.Now())

	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, name, major, status, year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		st.ID, st.Name, st.Major, st.Status, st.Year, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert student %s: %w", st.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", st.ID, repository.ErrAlreadyExists)
	}
	return nil
}

func scanStudent(row pgx.CollectableRow) (model.Student, error) {
	var st model.Student
	err := row.Scan(&st.ID, &st.Name, &st.Major, &st.Status, &st.Year, &st.CreatedAt)
	st.CreatedAt = st.CreatedAt.UTC()
	return st, err
}

func (s *Store) GetStudent(ctx context.Context, id string) (model.Student, error) {
	defer observe("get_student", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, major, status, year, created_at
		FROM students WHERE id = $1`, id)
	if err != nil {
		return model.Student{}, fmt.Errorf("get student %s: %w", id, err)
	}
	st, err := pgx.CollectExactlyOneRow(rows, scanStudent)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Student{}, fmt.Errorf("student %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("get student %s: %w", id, err)
	}
	return st, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	defer observe("list_students", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, major, status, year, created_at
		FROM students ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanStudent)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

func (s *Store) CountStudents(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}

func (s *Store) AddAttendance(ctx context.Context, rec model.AttendanceRecord) error {
	defer observe("add_attendance", time.Now())

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_records (id, student_id, date, presence)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.StudentID, rec.Date, string(rec.Presence),
	)
	if err != nil {
		return fmt.Errorf("insert attendance %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attendance %s: %w", rec.ID, repository.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) AddAssignment(ctx context.Context, rec model.AssignmentRecord) error {
	defer observe("add_assignment", time.Now())

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO assignment_records (id, student_id, title, grade, due_date, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.StudentID, rec.Title, rec.Grade, rec.DueDate, rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assignment %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s: %w", rec.ID, repository.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) FetchAttendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	defer observe("fetch_attendance", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, student_id, date, presence
		FROM attendance_records
		WHERE student_id = $1
		ORDER BY date, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("fetch attendance %s: %w", studentID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AttendanceRecord, error) {
		var r model.AttendanceRecord
		var presence string
		if err := row.Scan(&r.ID, &r.StudentID, &r.Date, &presence); err != nil {
			return r, err
		}
		r.Date = r.Date.UTC()
		r.Presence = model.Presence(presence)
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch attendance %s: %w", studentID, err)
	}
	if out == nil {
		out = []model.AttendanceRecord{}
	}
	return out, nil
}

func (s *Store) FetchAssignments(ctx context.Context, studentID string) ([]model.AssignmentRecord, error) {
	defer observe("fetch_assignments", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, student_id, title, grade, due_date, submitted_at
		FROM assignment_records
		WHERE student_id = $1
		ORDER BY due_date, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("fetch assignments %s: %w", studentID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AssignmentRecord, error) {
		var r model.AssignmentRecord
		if err := row.Scan(&r.ID, &r.StudentID, &r.Title, &r.Grade, &r.DueDate, &r.SubmittedAt); err != nil {
			return r, err
		}
		r.DueDate = r.DueDate.UTC()
		r.SubmittedAt = r.SubmittedAt.UTC()
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch assignments %s: %w", studentID, err)
	}
	if out == nil {
		out = []model.AssignmentRecord{}
	}
	return out, nil
}

func (s *Store) AllGrades(ctx context.Context) ([]int, error) {
	defer observe("all_grades", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT grade FROM assignment_records`)
	if err != nil {
		return nil, fmt.Errorf("all grades: %w", err)
	}
	grades, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("all grades: %w", err)
	}
	return grades, nil
}
