package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/edustream/internal/adapters/repository"
	service "github.com/okian/edustream/internal/app"
	"github.com/okian/edustream/internal/domain/analytics"
	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/internal/domain/risk"
	"github.com/okian/edustream/pkg/logger"
	"github.com/okian/edustream/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("Then operations report ErrNotStarted", func() {
			_, err := svc.ListStudents(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.ComputeRisk(ctx, "s-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.SubmitRecord(ctx, model.AttendanceEvent(model.AttendanceRecord{ID: "a", StudentID: "s", Date: day(1), Presence: model.Present}))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats(ctx).Started, ShouldBeFalse)
		})

		Convey("When it is started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats(ctx).Started, ShouldBeTrue)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it reports stopped", func() {
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
			})
		})
	})
}

func TestService_Students(t *testing.T) {
	Convey("Given a started service with deterministic ids", t, func() {
		ctx := context.Background()
		ids := []string{"id-1", "id-2", "id-3", "id-4", "id-5"}
		next := 0
		svc := startService(service.WithIDGenerator(func() string {
			id := ids[next]
			next++
			return id
		}))
		defer svc.Stop(ctx)

		Convey("When a student is created", func() {
			st, err := svc.CreateStudent(ctx, service.NewStudent{Name: "Alice Johnson", Major: "Computer Science", Status: "Enrolled", Year: "Year 2"})

			Convey("Then it gets an id and can be fetched", func() {
				So(err, ShouldBeNil)
				So(st.ID, ShouldEqual, "id-1")
				So(st.CreatedAt.IsZero(), ShouldBeFalse)

				got, err := svc.GetStudent(ctx, "id-1")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Alice Johnson")
			})
		})

		Convey("When an unknown student is fetched", func() {
			_, err := svc.GetStudent(ctx, "nope")

			Convey("Then the store's ErrNotFound comes through", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When sample data is seeded into an empty directory", func() {
			n, err := svc.SeedSampleData(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 4)

			Convey("Then the four sample students are listed in order", func() {
				list, err := svc.ListStudents(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 4)
				So(list[0].Name, ShouldEqual, "Alice Johnson")
				So(list[2].Status, ShouldEqual, "Pending")
				So(list[3].Major, ShouldEqual, "Data Science")
			})

			Convey("Then seeding again does nothing", func() {
				n, err := svc.SeedSampleData(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})
}

func TestService_ComputeRisk(t *testing.T) {
	Convey("Given a service over a pre-filled store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.AddAttendance(ctx, model.AttendanceRecord{ID: "a1", StudentID: "good", Date: day(10), Presence: model.Present}), ShouldBeNil)
		So(store.AddAttendance(ctx, model.AttendanceRecord{ID: "a2", StudentID: "good", Date: day(11), Presence: model.Present}), ShouldBeNil)
		So(store.AddAssignment(ctx, model.AssignmentRecord{ID: "g1", StudentID: "good", Title: "Essay", Grade: 95, DueDate: day(25), SubmittedAt: day(23)}), ShouldBeNil)
		So(store.AddAttendance(ctx, model.AttendanceRecord{ID: "a3", StudentID: "poor", Date: day(10), Presence: model.Absent}), ShouldBeNil)
		So(store.AddAssignment(ctx, model.AssignmentRecord{ID: "g2", StudentID: "poor", Title: "Essay", Grade: 45, DueDate: day(20), SubmittedAt: day(22)}), ShouldBeNil)

		svc := startService(service.WithStore(store))
		defer svc.Stop(ctx)

		Convey("Then each student is scored from their own records", func() {
			good, err := svc.ComputeRisk(ctx, "good")
			So(err, ShouldBeNil)
			So(good.Score, ShouldEqual, 99)
			So(good.Level, ShouldEqual, risk.Low)

			poor, err := svc.ComputeRisk(ctx, "poor")
			So(err, ShouldBeNil)
			So(poor.Score, ShouldEqual, 14)
			So(poor.Level, ShouldEqual, risk.High)
		})

		Convey("Then an unknown student gets the no-data sentinel", func() {
			a, err := svc.ComputeRisk(ctx, "stranger")
			So(err, ShouldBeNil)
			So(a.Score, ShouldEqual, 100)
			So(a.Level, ShouldEqual, risk.Unknown)
		})

		Convey("Then the grade summary covers every assignment", func() {
			sum, err := svc.GradeSummary(ctx)
			So(err, ShouldBeNil)
			So(sum.Count, ShouldEqual, 2)
			So(sum.Mean, ShouldEqual, 70.0)
			So(sum.Median, ShouldEqual, 70.0)
		})
	})
}

func TestService_Watchlist(t *testing.T) {
	Convey("Given three students with different risk", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		for _, st := range []model.Student{
			{ID: "s-c", Name: "Carol"},
			{ID: "s-a", Name: "Ann"},
			{ID: "s-b", Name: "Ben"},
		} {
			So(store.CreateStudent(ctx, st), ShouldBeNil)
		}
		// s-a and s-b both absent once: 0*0.5 + 100*0.3 + 50*0.2 = 40.
		So(store.AddAttendance(ctx, model.AttendanceRecord{ID: "x1", StudentID: "s-a", Date: day(1), Presence: model.Absent}), ShouldBeNil)
		So(store.AddAttendance(ctx, model.AttendanceRecord{ID: "x2", StudentID: "s-b", Date: day(1), Presence: model.Absent}), ShouldBeNil)
		// s-c present once: 50 + 30 + 10 = 90.
		So(store.AddAttendance(ctx, model.AttendanceRecord{ID: "x3", StudentID: "s-c", Date: day(1), Presence: model.Present}), ShouldBeNil)

		svc := startService(service.WithStore(store), service.WithMaxWatchlistLimit(10))
		defer svc.Stop(ctx)

		Convey("When the watchlist is requested", func() {
			list, err := svc.Watchlist(ctx, 10)

			Convey("Then the riskiest come first with ties by id", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].Assessment.StudentID, ShouldEqual, "s-a")
				So(list[0].Assessment.Score, ShouldEqual, 40)
				So(list[1].Assessment.StudentID, ShouldEqual, "s-b")
				So(list[2].Assessment.StudentID, ShouldEqual, "s-c")
				So(list[2].Name, ShouldEqual, "Carol")
			})
		})

		Convey("When the watchlist and a single score are computed", func() {
			before := riskAssessmentsTotal()
			_, err := svc.Watchlist(ctx, 10)
			So(err, ShouldBeNil)
			afterWatchlist := riskAssessmentsTotal()
			_, err = svc.ComputeRisk(ctx, "s-a")
			So(err, ShouldBeNil)

			Convey("Then only the single score counts as an assessment", func() {
				So(afterWatchlist, ShouldEqual, before)
				So(riskAssessmentsTotal(), ShouldEqual, before+1)
			})
		})

		Convey("When the limit truncates", func() {
			list, err := svc.Watchlist(ctx, 1)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 1)
			So(list[0].Name, ShouldEqual, "Ann")
		})

		Convey("When the limit is out of range", func() {
			_, err0 := svc.Watchlist(ctx, 0)
			_, errBig := svc.Watchlist(ctx, 11)
			So(errors.Is(err0, service.ErrInvalidLimit), ShouldBeTrue)
			So(errors.Is(errBig, service.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func riskAssessmentsTotal() float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "edustream_api_risk_assessments_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestService_DashboardAndPredict(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService()
		defer svc.Stop(ctx)
		_, err := svc.SeedSampleData(ctx)
		So(err, ShouldBeNil)

		Convey("Then the dashboard shows four cards with a live count first", func() {
			cards, err := svc.DashboardStats(ctx)
			So(err, ShouldBeNil)
			So(len(cards), ShouldEqual, 4)
			So(cards[0], ShouldResemble, service.StatCard{Label: "Total Students", Value: "4", Icon: "Users", Color: "#1d4ed8"})
			So(cards[1].Value, ShouldEqual, "84")
			So(cards[2].Label, ShouldEqual, "Global Campuses")
			So(cards[3].Icon, ShouldEqual, "Award")
		})

		Convey("Then the legacy predictor is available", func() {
			p := svc.PredictSuccess(ctx, analytics.SuccessInput{Attendance: 40, MidtermScore: 35, AssignmentsCompleted: 2})
			So(p.Status, ShouldEqual, analytics.StatusAtRisk)
		})
	})
}

func TestService_DashboardThousands(t *testing.T) {
	Convey("Given more than a thousand students", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		for i := 0; i < 1234; i++ {
			So(store.CreateStudent(ctx, model.Student{ID: fmt.Sprintf("s-%04d", i), Name: "n"}), ShouldBeNil)
		}
		svc := startService(service.WithStore(store))
		defer svc.Stop(ctx)

		Convey("Then the count is thousands-separated", func() {
			cards, err := svc.DashboardStats(ctx)
			So(err, ShouldBeNil)
			So(cards[0].Value, ShouldEqual, "1,234")
		})
	})
}
