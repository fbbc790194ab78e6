// Package risk computes a student's success-risk assessment from attendance
// and assignment history.
//
// The score is a fixed weighted sum of three sub-scores, each clamped to
// [0,100]:
//
//	score = round(attendance*0.5 + academic*0.3 + speed*0.2)
//
// Assessments are pure functions of their input: no I/O, no clock, no state.
package risk

import (
	"math"

	"github.com/okian/edustream/internal/domain/model"
)

// Level buckets a score.
type Level string

// Levels, from most to least urgent. Unknown marks a student with no records.
const (
	High    Level = "High"
	Medium  Level = "Medium"
	Low     Level = "Low"
	Unknown Level = "Unknown"
)

// Weights in percent; they sum to 100.
const (
	attendanceWeight = 50
	academicWeight   = 30
	speedWeight      = 20
)

const (
	maxScore = 100.0

	// speed = (delta + speedOffsetDays) * speedPointsPerDay, clamped.
	// Two days early saturates at 100; on time yields 50.
	speedOffsetDays   = 2.0
	speedPointsPerDay = 25.0

	highBelow   = 50
	mediumBelow = 75

	hoursPerDay = 24.0
)

// Insight messages keyed by the sign of the submission delta.
const (
	InsightEarly = "Submits work ahead of deadlines on average. Keep up the steady pace."
	InsightLate  = "Submits work after deadlines on average. Consider earlier starts or a study group."
	InsightNone  = "No attendance or assignment records yet."
)

// Input is everything known about one student at one point in time.
type Input struct {
	StudentID   string
	Attendance  []model.AttendanceRecord
	Assignments []model.AssignmentRecord
}

// Factors is the sub-score breakdown behind an Assessment.
type Factors struct {
	AttendanceRate  float64 // percent present, 0-100
	AcademicAverage float64 // mean grade, 0-100
	SpeedScore      float64 // 0-100
	SubmissionDelta float64 // mean days early (negative = late)
}

// Assessment is the derived view for one student. It is never persisted.
type Assessment struct {
	StudentID string
	Score     int
	Level     Level
	Factors   Factors
	Insight   string
}

// Scorer turns an Input into an Assessment.
type Scorer interface {
	Assess(in Input) Assessment
}

// WeightedScorer implements Scorer with the fixed attendance/academic/speed weights.
type WeightedScorer struct{}

// NewWeightedScorer returns the default scorer.
func NewWeightedScorer() *WeightedScorer {
	return &WeightedScorer{}
}

// Assess implements Scorer.
func (WeightedScorer) Assess(in Input) Assessment {
	return Assess(in)
}

// Assess scores one student. With no records at all it returns the optimistic
// sentinel: score 100, level Unknown.
func Assess(in Input) Assessment {
	f := Factors{
		AttendanceRate:  AttendanceRate(in.Attendance),
		AcademicAverage: AcademicAverage(in.Assignments),
		SubmissionDelta: SubmissionDelta(in.Assignments),
	}
	f.SpeedScore = SpeedScore(f.SubmissionDelta)

	if len(in.Attendance) == 0 && len(in.Assignments) == 0 {
		return Assessment{
			StudentID: in.StudentID,
			Score:     int(maxScore),
			Level:     Unknown,
			Factors:   f,
			Insight:   InsightNone,
		}
	}

	score := Combine(f.AttendanceRate, f.AcademicAverage, f.SpeedScore)
	insight := InsightEarly
	if f.SubmissionDelta < 0 {
		insight = InsightLate
	}
	return Assessment{
		StudentID: in.StudentID,
		Score:     score,
		Level:     LevelFor(score),
		Factors:   f,
		Insight:   insight,
	}
}

// AttendanceRate is the percentage of Present records; 100 with no records.
func AttendanceRate(records []model.AttendanceRecord) float64 {
	if len(records) == 0 {
		return maxScore
	}
	present := 0
	for _, r := range records {
		if r.Presence == model.Present {
			present++
		}
	}
	return float64(present) / float64(len(records)) * maxScore
}

// AcademicAverage is the mean grade; 100 with no assignments.
func AcademicAverage(assignments []model.AssignmentRecord) float64 {
	if len(assignments) == 0 {
		return maxScore
	}
	sum := 0
	for _, a := range assignments {
		sum += a.Grade
	}
	return float64(sum) / float64(len(assignments))
}

// SubmissionDelta is the mean of (due - submitted) in days; 0 with no assignments.
func SubmissionDelta(assignments []model.AssignmentRecord) float64 {
	if len(assignments) == 0 {
		return 0
	}
	var days float64
	for _, a := range assignments {
		days += a.DueDate.Sub(a.SubmittedAt).Hours() / hoursPerDay
	}
	return days / float64(len(assignments))
}

// SpeedScore maps a submission delta onto [0,100]; non-decreasing in delta.
func SpeedScore(delta float64) float64 {
	return clamp((delta+speedOffsetDays)*speedPointsPerDay, 0, maxScore)
}

// Combine applies the weights to already-normalized sub-scores and rounds
// half away from zero. Inputs are clamped so the result stays in [0,100].
func Combine(attendance, academic, speed float64) int {
	weighted := clamp(attendance, 0, maxScore)*attendanceWeight +
		clamp(academic, 0, maxScore)*academicWeight +
		clamp(speed, 0, maxScore)*speedWeight
	return int(math.Round(weighted / maxScore))
}

// LevelFor buckets a score: High below 50, Medium below 75, Low otherwise.
func LevelFor(score int) Level {
	switch {
	case score < highBelow:
		return High
	case score < mediumBelow:
		return Medium
	default:
		return Low
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
