package dedupe

import "time"

// Option configures the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds how many keys are remembered; n <= 0 means unbounded.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}

// RedisOption configures the Redis deduper.
type RedisOption func(*RedisDeduper)

// WithTTL sets how long a key is remembered. Zero keeps keys forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *RedisDeduper) {
		d.ttl = ttl
	}
}

// WithKeyPrefix namespaces keys, e.g. per environment.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *RedisDeduper) {
		d.prefix = prefix
	}
}
