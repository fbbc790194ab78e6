package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/pkg/logger"
)

// SampleStudents is the directory seeded into an empty store.
var SampleStudents = []NewStudent{
	{Name: "Alice Johnson", Major: "Computer Science", Status: "Enrolled", Year: "Year 2"},
	{Name: "Bob Smith", Major: "ICT Engineering", Status: "Enrolled", Year: "Year 3"},
	{Name: "Catherine Lee", Major: "Cyber Security", Status: "Pending", Year: "Year 1"},
	{Name: "David Miller", Major: "Data Science", Status: "Enrolled", Year: "Year 4"},
}

// SeedSampleData inserts SampleStudents when the directory is empty and
// returns how many were created.
func (s *Service) SeedSampleData(ctx context.Context) (int, error) {
	st, err := s.running()
	if err != nil {
		return 0, err
	}
	n, err := st.CountStudents(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, in := range SampleStudents {
		if _, err := s.CreateStudent(ctx, in); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", in.Name, err)
		}
		created++
	}
	s.logger.Info(ctx, "sample students seeded", logger.Int("count", created))
	return created, nil
}
