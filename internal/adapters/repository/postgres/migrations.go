package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is idempotent; Migrate may run on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS students (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    major      TEXT NOT NULL,
    status     TEXT NOT NULL,
    year       TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_students_created_at ON students(created_at, id)`,

	`CREATE TABLE IF NOT EXISTS attendance_records (
    id         TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    date       TIMESTAMP WITH TIME ZONE NOT NULL,
    presence   TEXT NOT NULL,
    CONSTRAINT valid_presence CHECK (presence IN ('Present', 'Absent'))
)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance_records(student_id, date, id)`,

	`CREATE TABLE IF NOT EXISTS assignment_records (
    id           TEXT PRIMARY KEY,
    student_id   TEXT NOT NULL,
    title        TEXT NOT NULL,
    grade        INTEGER NOT NULL,
    due_date     TIMESTAMP WITH TIME ZONE NOT NULL,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    CONSTRAINT valid_grade CHECK (grade >= 0 AND grade <= 100)
)`,
	`CREATE INDEX IF NOT EXISTS idx_assignment_student_due ON assignment_records(student_id, due_date, id)`,
}

// Migrate creates the tables and indexes used by Store.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: step %d: %w", ErrMigrationFailed, i+1, err)
		}
	}
	return nil
}
