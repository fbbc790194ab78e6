// Package analytics holds cohort-level calculations that sit beside the risk
// scorer: the legacy success predictor and the grade summary.
package analytics

import (
	"math"
	"slices"
)

// Prediction statuses.
const (
	StatusAtRisk  = "At Risk"
	StatusOnTrack = "On Track"

	RecommendTutoring = "Suggest tutoring"
	RecommendContinue = "Continue current path"
)

const (
	attendanceFactor  = 0.4
	midtermFactor     = 0.4
	pointsPerComplete = 2.0
	atRiskAbove       = 50.0
)

// SuccessInput is the legacy predictor's feature vector.
type SuccessInput struct {
	Attendance           float64 `json:"attendance"`
	MidtermScore         float64 `json:"midterm_score"`
	AssignmentsCompleted int     `json:"assignments_completed"`
}

// SuccessPrediction is the legacy predictor's answer.
type SuccessPrediction struct {
	RiskScore      float64 `json:"risk_score"`
	Status         string  `json:"status"`
	Recommendation string  `json:"recommendation"`
}

// PredictSuccess runs the linear legacy predictor. Higher RiskScore means more risk,
// the opposite orientation of the weighted risk score.
func PredictSuccess(in SuccessInput) SuccessPrediction {
	base := in.Attendance*attendanceFactor +
		in.MidtermScore*midtermFactor +
		float64(in.AssignmentsCompleted)*pointsPerComplete
	risk := math.Min(100, math.Max(0, 100-base))

	p := SuccessPrediction{
		RiskScore:      roundTo(risk, 2),
		Status:         StatusOnTrack,
		Recommendation: RecommendContinue,
	}
	if risk > atRiskAbove {
		p.Status = StatusAtRisk
		p.Recommendation = RecommendTutoring
	}
	return p
}

// Summary describes a set of grades.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	SD     float64 `json:"sd"`
}

// Summarize computes count, mean, median and the sample standard deviation.
// An empty set yields the zero Summary; a single grade has SD 0.
func Summarize(grades []int) Summary {
	n := len(grades)
	if n == 0 {
		return Summary{}
	}

	sorted := slices.Clone(grades)
	slices.Sort(sorted)

	sum := 0
	for _, g := range sorted {
		sum += g
	}
	mean := float64(sum) / float64(n)

	var median float64
	if n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}

	var sd float64
	if n > 1 {
		var sq float64
		for _, g := range sorted {
			d := float64(g) - mean
			sq += d * d
		}
		sd = math.Sqrt(sq / float64(n-1))
	}

	return Summary{
		Count:  n,
		Mean:   roundTo(mean, 2),
		Median: median,
		SD:     roundTo(sd, 2),
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
