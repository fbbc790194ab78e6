// Package worker persists queued attendance and assignment records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/pkg/logger"
	"github.com/okian/edustream/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// ErrUnknownKind is returned for records whose payload does not match their kind.
var ErrUnknownKind = errors.New("unknown record kind")

// RecordWriter stores records. repository.RecordStore satisfies it.
type RecordWriter interface {
	AddAttendance(ctx context.Context, rec model.AttendanceRecord) error
	AddAssignment(ctx context.Context, rec model.AssignmentRecord) error
}

// Forgetter releases a dedupe key after a failed write so the client may retry.
type Forgetter interface {
	Unrecord(ctx context.Context, key string) error
}

// Queue is the read side of the ingestion queue.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Record
}

// Counters summarizes what the workers have done since start.
type Counters struct {
	Persisted  int64 `json:"persisted"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

type counters struct {
	persisted  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Persisted:  c.persisted.Load(),
		Duplicates: c.duplicates.Load(),
		Failed:     c.failed.Load(),
	}
}

// InMemoryWorker drains a Queue into a RecordWriter.
type InMemoryWorker struct {
	queue     Queue
	writer    RecordWriter
	forgetter Forgetter
	name      string
	stats     *counters

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker; call Run to start it.
func NewInMemoryWorker(q Queue, w RecordWriter, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:    q,
		writer:   w,
		name:     "worker",
		stats:    &counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(wk)
	}
	if wk.logger == nil {
		wk.logger = logger.Named(wk.name)
	}
	return wk
}

// Run processes records until the queue closes, ctx ends, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "persist record failed",
					logger.String("kind", string(r.Kind)),
					logger.String("record_id", r.ID()),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without draining and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown %s: %w", w.name, ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, r model.Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	kind := string(r.Kind)
	var err error
	switch {
	case r.Kind == model.KindAttendance && r.Attendance != nil:
		err = w.writer.AddAttendance(ctx, *r.Attendance)
	case r.Kind == model.KindAssignment && r.Assignment != nil:
		err = w.writer.AddAssignment(ctx, *r.Assignment)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}

	switch {
	case err == nil:
		w.stats.persisted.Add(1)
		metrics.RecordRecordPersisted(kind)
		w.logger.Debug(ctx, "record persisted",
			logger.String("kind", kind),
			logger.String("record_id", r.ID()),
			logger.String("student_id", r.StudentID()),
		)
		return nil
	case errors.Is(err, repository.ErrAlreadyExists):
		// Already stored by an earlier run or another replica.
		w.stats.duplicates.Add(1)
		metrics.RecordRecordDuplicate(kind)
		return nil
	default:
		w.stats.failed.Add(1)
		metrics.RecordPersistError(kind)
		if w.forgetter != nil {
			if ferr := w.forgetter.Unrecord(ctx, r.DedupeKey()); ferr != nil {
				w.logger.Warn(ctx, "release dedupe key failed", logger.String("key", r.DedupeKey()), logger.Error(ferr))
			}
		}
		return err
	}
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *counters
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one uses 2×NumCPU.
func NewPool(workerCount int, q Queue, w RecordWriter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &counters{},
		logger:  logger.Named("worker-pool"),
	}
	for i := range workerCount {
		all := append([]Option{WithName("worker-" + strconv.Itoa(i)), withCounters(p.stats)}, opts...)
		p.workers[i] = NewInMemoryWorker(q, w, all...)
	}
	return p
}

// Start launches every worker. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Counters returns totals across all workers.
func (p *Pool) Counters() Counters { return p.stats.snapshot() }

// Shutdown closes the queue, lets workers drain it, and waits up to the
// earlier of ctx's deadline and 30s.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "close queue failed", logger.Error(err))
		}
	}
	defer metrics.UpdateWorkerCount(0)

	if !p.started.Load() {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for _, w := range p.workers {
		select {
		case <-w.Done():
		case <-waitCtx.Done():
			timedOut++
		}
	}
	if timedOut > 0 {
		for _, w := range p.workers {
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("workers", timedOut))
		return fmt.Errorf("worker pool shutdown: %w", waitCtx.Err())
	}
	p.logger.Info(ctx, "worker pool stopped", logger.Any("counters", p.stats.snapshot()))
	return nil
}
