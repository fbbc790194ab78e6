// Package service composes the store, risk scorer, deduper and ingestion
// pipeline into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edustream/internal/adapters/mq/queue"
	"github.com/okian/edustream/internal/adapters/mq/worker"
	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/internal/domain/dedupe"
	"github.com/okian/edustream/internal/domain/risk"
	"github.com/okian/edustream/pkg/logger"
)

const (
	defaultQueueSize         = 10_000
	defaultDedupeSize        = 100_000
	defaultMaxWatchlistLimit = 100
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	scorer  risk.Scorer
	queue   queue.Queue
	pool    *worker.Pool

	workerCount       int
	queueSize         int
	dedupeSize        int
	maxWatchlistLimit int

	newID func() string
	now   func() time.Time

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDeduper replaces the default in-memory deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithScorer replaces the weighted risk scorer.
func WithScorer(sc risk.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize bounds the ingestion queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the default in-memory deduper.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithMaxWatchlistLimit caps Watchlist's limit.
func WithMaxWatchlistLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxWatchlistLimit = n
		}
	}
}

// WithIDGenerator overrides uuid generation for new students.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newID = f
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Components not supplied by options are built on Start.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:            risk.NewWeightedScorer(),
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         defaultQueueSize,
		dedupeSize:        defaultDedupeSize,
		maxWatchlistLimit: defaultMaxWatchlistLimit,
		newID:             uuid.NewString,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start builds missing components and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithClock(s.now))
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, worker.WithForgetter(s.deduper))
	// Workers outlive the request that started the service.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop drains the ingestion queue and closes the store and deduper.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if c, ok := s.deduper.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close deduper: %w", err))
		}
	}
	s.logger.Info(ctx, "service stopped", logger.Any("counters", s.pool.Counters()))
	return errors.Join(errs...)
}

// running returns the store when the service is started.
func (s *Service) running() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Stats is the runtime snapshot served at /stats.
type Stats struct {
	Started       bool            `json:"started"`
	Uptime        string          `json:"uptime,omitempty"`
	Workers       int             `json:"workers"`
	QueueLength   int             `json:"queue_length"`
	QueueCapacity int             `json:"queue_capacity"`
	DedupeSize    int64           `json:"dedupe_size"`
	TotalStudents int             `json:"total_students"`
	Ingestion     worker.Counters `json:"ingestion"`
}

// GetStats reports the pipeline state.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:       s.started,
		Workers:       s.workerCount,
		QueueCapacity: s.queueSize,
	}
	if !s.started {
		return st
	}
	st.Uptime = s.now().Sub(s.startedAt).Round(time.Second).String()
	st.QueueLength = s.queue.Len(ctx)
	st.DedupeSize = s.deduper.Size()
	st.Ingestion = s.pool.Counters()
	if n, err := s.store.CountStudents(ctx); err == nil {
		st.TotalStudents = n
	} else {
		s.logger.Warn(ctx, "count students failed", logger.Error(err))
	}
	return st
}
