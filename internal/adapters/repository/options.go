package repository

import "time"

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used to stamp students without CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
