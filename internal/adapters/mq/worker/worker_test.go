package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/edustream/internal/adapters/mq/queue"
	"github.com/okian/edustream/internal/adapters/mq/worker"
	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockWriter struct {
	mu          sync.Mutex
	attendance  []model.AttendanceRecord
	assignments []model.AssignmentRecord
	failIDs     map[string]error
}

func newMockWriter() *mockWriter {
	return &mockWriter{failIDs: make(map[string]error)}
}

func (m *mockWriter) AddAttendance(_ context.Context, rec model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[rec.ID]; ok {
		return err
	}
	m.attendance = append(m.attendance, rec)
	return nil
}

func (m *mockWriter) AddAssignment(_ context.Context, rec model.AssignmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[rec.ID]; ok {
		return err
	}
	m.assignments = append(m.assignments, rec)
	return nil
}

func (m *mockWriter) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendance), len(m.assignments)
}

type mockForgetter struct {
	mu   sync.Mutex
	keys []string
}

func (f *mockForgetter) Unrecord(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func (f *mockForgetter) released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func att(id string) model.Record {
	return model.AttendanceEvent(model.AttendanceRecord{
		ID: id, StudentID: "s-1", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Presence: model.Present,
	})
}

func asg(id string) model.Record {
	due := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return model.AssignmentEvent(model.AssignmentRecord{
		ID: id, StudentID: "s-1", Title: "Lab", Grade: 70, DueDate: due, SubmittedAt: due,
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of three workers", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		w := newMockWriter()
		f := &mockForgetter{}
		p := worker.NewPool(3, q, w, worker.WithForgetter(f))
		So(p.Size(), ShouldEqual, 3)

		Convey("When records of both kinds are queued and the pool drains", func() {
			p.Start(ctx)
			for i := 0; i < 20; i++ {
				So(q.Enqueue(ctx, att(fmt.Sprintf("a-%d", i))), ShouldBeTrue)
			}
			for i := 0; i < 5; i++ {
				So(q.Enqueue(ctx, asg(fmt.Sprintf("g-%d", i))), ShouldBeTrue)
			}
			So(p.Shutdown(ctx), ShouldBeNil)

			Convey("Then every record is persisted before shutdown returns", func() {
				na, ng := w.counts()
				So(na, ShouldEqual, 20)
				So(ng, ShouldEqual, 5)
				So(p.Counters().Persisted, ShouldEqual, 25)
				So(q.IsClosed(), ShouldBeTrue)
			})
		})

		Convey("When the store reports a duplicate", func() {
			w.failIDs["a-dup"] = fmt.Errorf("attendance a-dup: %w", repository.ErrAlreadyExists)
			p.Start(ctx)
			So(q.Enqueue(ctx, att("a-dup")), ShouldBeTrue)
			So(p.Shutdown(ctx), ShouldBeNil)

			Convey("Then it is counted as a duplicate and the key is kept", func() {
				c := p.Counters()
				So(c.Duplicates, ShouldEqual, 1)
				So(c.Failed, ShouldEqual, 0)
				So(f.released(), ShouldBeEmpty)
			})
		})

		Convey("When the store fails", func() {
			w.failIDs["g-bad"] = errors.New("connection reset")
			p.Start(ctx)
			So(q.Enqueue(ctx, asg("g-bad")), ShouldBeTrue)
			So(p.Shutdown(ctx), ShouldBeNil)

			Convey("Then the failure is counted and the dedupe key released", func() {
				So(p.Counters().Failed, ShouldEqual, 1)
				So(f.released(), ShouldResemble, []string{"assignment:g-bad"})
			})
		})

		Convey("When a malformed record is queued", func() {
			p.Start(ctx)
			So(q.Enqueue(ctx, model.Record{Kind: model.KindAttendance}), ShouldBeTrue)
			So(p.Shutdown(ctx), ShouldBeNil)

			Convey("Then it fails without reaching the store", func() {
				na, ng := w.counts()
				So(na+ng, ShouldEqual, 0)
				So(p.Counters().Failed, ShouldEqual, 1)
			})
		})

		Convey("When shutdown is called before start", func() {
			Convey("Then it only closes the queue", func() {
				So(p.Shutdown(ctx), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a non-positive worker count", t, func() {
		p := worker.NewPool(0, queue.NewInMemoryQueue(), newMockWriter())

		Convey("Then a CPU-based default is used", func() {
			So(p.Size(), ShouldBeGreaterThan, 0)
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker on an idle queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewInMemoryWorker(q, newMockWriter(), worker.WithName("solo"))
		go w.Run(context.Background())

		Convey("When it is shut down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			Convey("Then it exits promptly and can be shut down again", func() {
				So(err, ShouldBeNil)
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a worker whose context is cancelled", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewInMemoryWorker(q, newMockWriter())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		Convey("Then Run returns", func() {
			select {
			case <-w.Done():
				So(true, ShouldBeTrue)
			case <-time.After(time.Second):
				So("worker still running", ShouldBeEmpty)
			}
		})
	})
}
