package worker

import (
	"github.com/okian/edustream/pkg/logger"
)

// Option configures an InMemoryWorker. Pool applies the same options to every worker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger overrides the worker logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithForgetter releases dedupe keys of records that failed to persist.
func WithForgetter(f Forgetter) Option {
	return func(w *InMemoryWorker) {
		w.forgetter = f
	}
}

func withCounters(c *counters) Option {
	return func(w *InMemoryWorker) {
		w.stats = c
	}
}
