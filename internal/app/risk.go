package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/internal/domain/risk"
	"github.com/okian/edustream/pkg/logger"
	"github.com/okian/edustream/pkg/metrics"
)

// ComputeRisk fetches a student's records and scores them. An unknown student
// is not an error: it scores as the no-data sentinel.
func (s *Service) ComputeRisk(ctx context.Context, studentID string) (risk.Assessment, error) {
	st, err := s.running()
	if err != nil {
		return risk.Assessment{}, err
	}
	a, err := s.assess(ctx, st, studentID)
	if err != nil {
		return risk.Assessment{}, err
	}
	metrics.RecordRiskAssessment(string(a.Level), a.Score)
	return a, nil
}

// assess scores one student without touching the per-request metrics.
func (s *Service) assess(ctx context.Context, st repository.RecordStore, studentID string) (risk.Assessment, error) {
	att, err := st.FetchAttendance(ctx, studentID)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("compute risk %s: %w", studentID, err)
	}
	asg, err := st.FetchAssignments(ctx, studentID)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("compute risk %s: %w", studentID, err)
	}

	a := s.scorer.Assess(risk.Input{StudentID: studentID, Attendance: att, Assignments: asg})
	s.logger.Debug(ctx, "risk computed",
		logger.String("student_id", studentID),
		logger.Int("score", a.Score),
		logger.String("level", string(a.Level)),
		logger.Int("attendance_records", len(att)),
		logger.Int("assignment_records", len(asg)),
	)
	return a, nil
}

// WatchlistEntry pairs a student's name with their assessment.
type WatchlistEntry struct {
	Name       string
	Assessment risk.Assessment
}

// Watchlist assesses every student and returns the limit riskiest, lowest
// score first and ties broken by student id.
func (s *Service) Watchlist(ctx context.Context, limit int) ([]WatchlistEntry, error) {
	if limit < 1 || limit > s.maxWatchlistLimit {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, s.maxWatchlistLimit)
	}
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	students, err := st.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}

	out := make([]WatchlistEntry, 0, len(students))
	for _, stu := range students {
		a, err := s.assess(ctx, st, stu.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, WatchlistEntry{Name: stu.Name, Assessment: a})
	}

	slices.SortFunc(out, func(a, b WatchlistEntry) int {
		if c := cmp.Compare(a.Assessment.Score, b.Assessment.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Assessment.StudentID, b.Assessment.StudentID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	metrics.RecordWatchlist(len(students))
	return out, nil
}

// MaxWatchlistLimit is the largest limit Watchlist accepts.
func (s *Service) MaxWatchlistLimit() int { return s.maxWatchlistLimit }
