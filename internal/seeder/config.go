// Package seeder drives a running edustream instance with synthetic
// students and records over HTTP.
package seeder

import (
	"runtime"
	"time"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL        string        // service base URL
	Students       int           // students to create
	AttendanceDays int           // attendance records per student
	Assignments    int           // assignment records per student
	DuplicateEvery int           // resubmit every Nth record; 0 disables
	WatchlistSize  int           // entries fetched at the end
	Workers        int           // concurrent submitters
	Timeout        time.Duration // per-request timeout
	SettleTimeout  time.Duration // how long to wait for the queue to drain
	Seed           uint64        // generator seed; same seed, same records
	StartDate      time.Time     // first attendance day
}

// DefaultConfig returns a small, fast run against localhost.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:5000",
		Students:       20,
		AttendanceDays: 30,
		Assignments:    8,
		DuplicateEvery: 10,
		WatchlistSize:  10,
		Workers:        runtime.NumCPU() * 2,
		Timeout:        10 * time.Second,
		SettleTimeout:  30 * time.Second,
		Seed:           1,
		StartDate:      time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
	}
}

type studentPayload struct {
	Name   string `json:"name"`
	Major  string `json:"major"`
	Status string `json:"status"`
	Year   string `json:"year"`
}

type attendancePayload struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Presence  string `json:"presence"`
}

type assignmentPayload struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	Title       string `json:"title"`
	Grade       int    `json:"grade"`
	DueDate     string `json:"due_date"`
	SubmittedAt string `json:"submitted_at"`
}

// submission is one queued POST.
type submission struct {
	path string
	body any
}

// WatchlistEntry mirrors one GET /api/risk item.
type WatchlistEntry struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Risk      string `json:"risk"`
}

// Stats summarises a run.
type Stats struct {
	StudentsCreated int
	Submitted       int
	Accepted        int
	Duplicates      int
	Rejected        int
	Failed          int
	Persisted       int64
	Watchlist       []WatchlistEntry
	Duration        time.Duration
}
