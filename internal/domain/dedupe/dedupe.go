// Package dedupe tracks which record ids have already been accepted so that
// resubmissions from the attendance-logging process are ignored.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen record keys to ensure at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it if not.
	// It returns true when key was already present.
	SeenAndRecord(ctx context.Context, key string) (bool, error)

	// Unrecord forgets key so that a rejected submission can be retried.
	Unrecord(ctx context.Context, key string) error

	// Size reports how many keys this instance currently remembers.
	Size() int64
}

const defaultMaxSize = 50_000

// inMemoryDeduper keeps keys in a map and, when bounded, a ring of insertion
// slots. Once the ring wraps, the oldest slot's key is forgotten.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 when unbounded
	ring    []string
	used    []bool
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a process-local deduper.
// WithMaxSize(n <= 0) makes it unbounded.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
		d.used = make([]bool, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true, nil
	}

	if d.maxSize <= 0 {
		d.seen[key] = -1
		d.size.Add(1)
		return false, nil
	}

	if d.used[d.next] {
		delete(d.seen, d.ring[d.next])
		d.size.Add(-1)
	}
	d.ring[d.next] = key
	d.used[d.next] = true
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	d.size.Add(1)
	return false, nil
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return nil
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.ring[slot] = ""
		d.used[slot] = false
	}
	d.size.Add(-1)
	return nil
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
