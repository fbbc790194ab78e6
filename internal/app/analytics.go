package service

import (
	"context"
	"fmt"

	"github.com/okian/edustream/internal/domain/analytics"
	"github.com/okian/edustream/pkg/metrics"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StatCard is one dashboard tile.
type StatCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Fixed institutional figures shown beside the live student count.
var staticCards = []StatCard{
	{Label: "Active Courses", Value: "84", Icon: "BookOpen", Color: "#b45309"},
	{Label: "Global Campuses", Value: "3", Icon: "Globe", Color: "#15803d"},
	{Label: "Accreditations", Value: "12", Icon: "Award", Color: "#7c3aed"},
}

var numberPrinter = message.NewPrinter(language.English)

// DashboardStats returns the four dashboard cards; only Total Students is live.
func (s *Service) DashboardStats(ctx context.Context) ([]StatCard, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	n, err := st.CountStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	metrics.UpdateTotalStudents(n)

	cards := make([]StatCard, 0, 1+len(staticCards))
	cards = append(cards, StatCard{
		Label: "Total Students",
		Value: numberPrinter.Sprintf("%d", n),
		Icon:  "Users",
		Color: "#1d4ed8",
	})
	return append(cards, staticCards...), nil
}

// GradeSummary describes every stored assignment grade.
func (s *Service) GradeSummary(ctx context.Context) (analytics.Summary, error) {
	st, err := s.running()
	if err != nil {
		return analytics.Summary{}, err
	}
	grades, err := st.AllGrades(ctx)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("grade summary: %w", err)
	}
	return analytics.Summarize(grades), nil
}

// PredictSuccess runs the legacy linear predictor. It needs no stored data.
func (s *Service) PredictSuccess(_ context.Context, in analytics.SuccessInput) analytics.SuccessPrediction {
	return analytics.PredictSuccess(in)
}
