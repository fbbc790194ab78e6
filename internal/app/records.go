package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/pkg/logger"
	"github.com/okian/edustream/pkg/metrics"
)

// SubmitOutcome reports what SubmitRecord did with a record.
type SubmitOutcome int

const (
	// Accepted means the record was queued for persistence.
	Accepted SubmitOutcome = iota
	// Duplicate means the record id was already submitted.
	Duplicate
)

func (o SubmitOutcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "accepted"
}

// SubmitRecord deduplicates r by kind and id and queues it for persistence.
// A full queue returns ErrBackpressure and releases the dedupe key so the
// client can retry.
func (s *Service) SubmitRecord(ctx context.Context, r model.Record) (SubmitOutcome, error) {
	if err := validateRecord(r); err != nil {
		return Accepted, err
	}

	s.mu.RLock()
	started, d, q := s.started, s.deduper, s.queue
	s.mu.RUnlock()
	if !started {
		return Accepted, ErrNotStarted
	}

	kind := string(r.Kind)
	key := r.DedupeKey()

	seen, err := d.SeenAndRecord(ctx, key)
	if err != nil {
		return Accepted, fmt.Errorf("dedupe %s: %w", key, err)
	}
	if seen {
		metrics.RecordRecordDuplicate(kind)
		s.logger.Debug(ctx, "duplicate record", logger.String("key", key))
		return Duplicate, nil
	}

	if !q.Enqueue(ctx, r) {
		if uerr := d.Unrecord(ctx, key); uerr != nil {
			s.logger.Warn(ctx, "release dedupe key failed", logger.String("key", key), logger.Error(uerr))
		}
		metrics.RecordRecordRejected(kind, "backpressure")
		return Accepted, ErrBackpressure
	}

	metrics.RecordRecordAccepted(kind)
	return Accepted, nil
}

func validateRecord(r model.Record) error {
	switch {
	case r.Kind == model.KindAttendance && r.Attendance != nil:
		a := r.Attendance
		if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.StudentID) == "" {
			return fmt.Errorf("%w: attendance id and student id are required", ErrInvalidRecord)
		}
		if a.Date.IsZero() {
			return fmt.Errorf("%w: attendance date is required", ErrInvalidRecord)
		}
		if a.Presence != model.Present && a.Presence != model.Absent {
			return fmt.Errorf("%w: presence %q", ErrInvalidRecord, a.Presence)
		}
	case r.Kind == model.KindAssignment && r.Assignment != nil:
		a := r.Assignment
		if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.StudentID) == "" {
			return fmt.Errorf("%w: assignment id and student id are required", ErrInvalidRecord)
		}
		if a.Grade < 0 || a.Grade > 100 {
			return fmt.Errorf("%w: grade %d outside 0-100", ErrInvalidRecord, a.Grade)
		}
		if a.DueDate.IsZero() || a.SubmittedAt.IsZero() {
			return fmt.Errorf("%w: due date and submission time are required", ErrInvalidRecord)
		}
	default:
		return fmt.Errorf("%w: kind %q without payload", ErrInvalidRecord, r.Kind)
	}
	return nil
}
