// Package queue buffers submitted records between the HTTP handlers and the
// persistence workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/edustream/internal/domain/model"
	"github.com/okian/edustream/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds r without blocking. It returns false when the queue is
	// full, closed, or ctx is already done.
	Enqueue(ctx context.Context, r model.Record) bool

	// Dequeue returns the channel workers read from. It is closed by Close
	// once all buffered records have been received.
	Dequeue(ctx context.Context) <-chan model.Record

	Len(ctx context.Context) int
	Cap() int

	// Close stops accepting records. Buffered records stay readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a single buffered channel.
type InMemoryQueue struct {
	records  chan model.Record
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan model.Record, q.capacity)
	metrics.UpdateQueue(0, q.capacity)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, r model.Record) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		return false
	}

	select {
	case q.records <- r:
		metrics.UpdateQueue(len(q.records), q.capacity)
		return true
	default:
		return false
	}
}

func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan model.Record {
	return q.records
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.records)
	metrics.UpdateQueue(n, q.capacity)
	return n
}

func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
