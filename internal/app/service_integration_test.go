package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/edustream/internal/adapters/repository"
	service "github.com/okian/edustream/internal/app"
	"github.com/okian/edustream/internal/domain/dedupe"
	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

// eventually polls cond until it holds or the timeout passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServiceIngestion(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := startService(service.WithQueueSize(100))
		defer svc.Stop(ctx)

		Convey("When attendance and assignments are submitted", func() {
			records := []model.Record{
				model.AttendanceEvent(model.AttendanceRecord{ID: "a1", StudentID: "s-1", Date: day(10), Presence: model.Present}),
				model.AttendanceEvent(model.AttendanceRecord{ID: "a2", StudentID: "s-1", Date: day(11), Presence: model.Present}),
				model.AssignmentEvent(model.AssignmentRecord{ID: "g1", StudentID: "s-1", Title: "Lab", Grade: 95, DueDate: day(25), SubmittedAt: day(23)}),
			}
			for _, r := range records {
				out, err := svc.SubmitRecord(ctx, r)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, service.Accepted)
			}

			Convey("Then they are persisted and drive the assessment", func() {
				So(eventually(func() bool { return svc.GetStats(ctx).Ingestion.Persisted == 3 }), ShouldBeTrue)

				att, err := svc.FetchAttendance(ctx, "s-1")
				So(err, ShouldBeNil)
				So(len(att), ShouldEqual, 2)

				a, err := svc.ComputeRisk(ctx, "s-1")
				So(err, ShouldBeNil)
				So(a.Score, ShouldEqual, 99)
				So(a.Level, ShouldEqual, risk.Low)
			})

			Convey("Then resubmitting the same id is a duplicate", func() {
				out, err := svc.SubmitRecord(ctx, records[0])
				So(err, ShouldBeNil)
				So(out, ShouldEqual, service.Duplicate)
				So(out.String(), ShouldEqual, "duplicate")
			})

			Convey("Then the same id under the other kind is accepted", func() {
				out, err := svc.SubmitRecord(ctx, model.AssignmentEvent(model.AssignmentRecord{
					ID: "a1", StudentID: "s-1", Title: "Quiz", Grade: 80, DueDate: day(12), SubmittedAt: day(12),
				}))
				So(err, ShouldBeNil)
				So(out, ShouldEqual, service.Accepted)
			})
		})

		Convey("When invalid records are submitted", func() {
			cases := []model.Record{
				{Kind: model.KindAttendance},
				model.AttendanceEvent(model.AttendanceRecord{ID: "", StudentID: "s-1", Date: day(1), Presence: model.Present}),
				model.AttendanceEvent(model.AttendanceRecord{ID: "a", StudentID: "s-1", Date: day(1), Presence: "Late"}),
				model.AssignmentEvent(model.AssignmentRecord{ID: "g", StudentID: "s-1", Grade: 101, DueDate: day(1), SubmittedAt: day(1)}),
				model.AssignmentEvent(model.AssignmentRecord{ID: "g", StudentID: "s-1", Grade: 50}),
			}

			Convey("Then each is rejected before deduplication", func() {
				for _, r := range cases {
					_, err := svc.SubmitRecord(ctx, r)
					So(errors.Is(err, service.ErrInvalidRecord), ShouldBeTrue)
				}
				So(svc.GetStats(ctx).DedupeSize, ShouldEqual, 0)
			})
		})
	})
}

// gateStore blocks AddAttendance until release is closed.
type gateStore struct {
	*repository.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gateStore) AddAttendance(ctx context.Context, rec model.AttendanceRecord) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.MemoryStore.AddAttendance(ctx, rec)
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given one blocked worker and a queue of one", t, func() {
		ctx := context.Background()
		store := &gateStore{
			MemoryStore: repository.NewMemoryStore(),
			entered:     make(chan struct{}),
			release:     make(chan struct{}),
		}
		d := dedupe.NewInMemoryDeduper()
		svc := service.New(
			service.WithStore(store),
			service.WithDeduper(d),
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
		)
		So(svc.Start(ctx), ShouldBeNil)

		rec := func(i int) model.Record {
			return model.AttendanceEvent(model.AttendanceRecord{
				ID: fmt.Sprintf("r-%d", i), StudentID: "s-1", Date: day(1 + i), Presence: model.Present,
			})
		}

		_, err := svc.SubmitRecord(ctx, rec(1))
		So(err, ShouldBeNil)
		<-store.entered // worker holds r-1
		_, err = svc.SubmitRecord(ctx, rec(2))
		So(err, ShouldBeNil) // r-2 fills the queue

		Convey("When another record arrives", func() {
			_, err := svc.SubmitRecord(ctx, rec(3))

			Convey("Then it is refused and its key released for retry", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 2)

				close(store.release)
				So(eventually(func() bool { return svc.GetStats(ctx).QueueLength == 0 }), ShouldBeTrue)
				out, err := svc.SubmitRecord(ctx, rec(3))
				So(err, ShouldBeNil)
				So(out, ShouldEqual, service.Accepted)

				So(svc.Stop(ctx), ShouldBeNil)
				att, _ := store.FetchAttendance(ctx, "s-1")
				So(len(att), ShouldEqual, 3)
			})
		})
	})
}

func TestServiceConcurrentSubmitters(t *testing.T) {
	Convey("Given many clients submitting overlapping records", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(service.WithStore(store), service.WithWorkerCount(4), service.WithQueueSize(1000))

		var wg sync.WaitGroup
		for c := 0; c < 8; c++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_, _ = svc.SubmitRecord(ctx, model.AttendanceEvent(model.AttendanceRecord{
						ID: fmt.Sprintf("r-%d", i), StudentID: "s-1", Date: day(1 + i%28), Presence: model.Present,
					}))
				}
			}()
		}
		wg.Wait()
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("Then each record id is stored exactly once", func() {
			att, err := store.FetchAttendance(ctx, "s-1")
			So(err, ShouldBeNil)
			So(len(att), ShouldEqual, 50)
		})
	})
}
