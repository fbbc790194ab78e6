package seeder

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// profile shapes a synthetic student's record stream.
type profile struct {
	presence  float64 // probability of Present
	gradeMin  int
	gradeSpan int
	// submission offset in days relative to due; positive is early
	earlyMin  float64
	earlySpan float64
}

var profiles = []profile{
	{presence: 0.97, gradeMin: 82, gradeSpan: 18, earlyMin: 0.5, earlySpan: 2.5}, // steady
	{presence: 0.85, gradeMin: 65, gradeSpan: 25, earlyMin: -1, earlySpan: 2.5},  // average
	{presence: 0.6, gradeMin: 45, gradeSpan: 30, earlyMin: -3, earlySpan: 3},     // slipping
	{presence: 0.3, gradeMin: 20, gradeSpan: 35, earlyMin: -5, earlySpan: 3},     // struggling
}

var (
	firstNames = []string{"Amara", "Ben", "Chen", "Dara", "Elif", "Femi", "Grace", "Hugo", "Imani", "Jonas", "Kofi", "Lerato"}
	lastNames  = []string{"Nkosi", "Park", "Okafor", "Silva", "Tanaka", "Van Wyk", "Walsh", "Yilmaz", "Zulu", "Adeyemi"}
	majors     = []string{"Computer Science", "ICT Engineering", "Cyber Security", "Data Science", "Information Systems"}
	years      = []string{"Year 1", "Year 2", "Year 3", "Year 4"}
	titles     = []string{"Cloud Architecture Lab", "Network Design Report", "Database Project", "Security Audit", "Algorithms Quiz", "Systems Essay"}
)

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("edustream:seeder")) //nolint:gochecknoglobals // fixed namespace

// generator is deterministic for a given seed: the same seed and student id
// yield the same records, ids included. Students get fresh ids from the
// server on each run, so a rerun never collides with earlier records.
type generator struct {
	rng   *rand.Rand
	start time.Time
}

func newGenerator(seed uint64, start time.Time) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), start: start.UTC()}
}

func (g *generator) student(i int) studentPayload {
	return studentPayload{
		Name:   fmt.Sprintf("%s %s", pick(g.rng, firstNames), pick(g.rng, lastNames)),
		Major:  pick(g.rng, majors),
		Status: "Enrolled",
		Year:   years[i%len(years)],
	}
}

// records builds one student's attendance and assignments.
func (g *generator) records(studentID string, days, assignments int) []submission {
	p := profiles[g.rng.IntN(len(profiles))]
	out := make([]submission, 0, days+assignments)

	for d := range days {
		presence := "Absent"
		if g.rng.Float64() < p.presence {
			presence = "Present"
		}
		out = append(out, submission{path: "/api/attendance", body: attendancePayload{
			ID:        recordID(studentID, "attendance", d),
			StudentID: studentID,
			Date:      g.start.AddDate(0, 0, d).Format(time.DateOnly),
			Presence:  presence,
		}})
	}

	for a := range assignments {
		due := g.start.AddDate(0, 0, 7*(a+1)).Add(17 * time.Hour)
		early := p.earlyMin + g.rng.Float64()*p.earlySpan
		submitted := due.Add(-time.Duration(early * float64(24*time.Hour))).Truncate(time.Minute)
		out = append(out, submission{path: "/api/assignments", body: assignmentPayload{
			ID:          recordID(studentID, "assignment", a),
			StudentID:   studentID,
			Title:       fmt.Sprintf("%s %d", pick(g.rng, titles), a+1),
			Grade:       min(100, p.gradeMin+g.rng.IntN(p.gradeSpan+1)),
			DueDate:     due.Format(time.RFC3339),
			SubmittedAt: submitted.Format(time.RFC3339),
		}})
	}
	return out
}

func recordID(studentID, kind string, n int) string {
	return uuid.NewSHA1(recordNamespace, fmt.Appendf(nil, "%s|%s|%d", studentID, kind, n)).String()
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}
