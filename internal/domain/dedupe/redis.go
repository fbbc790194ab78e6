package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "edustream:dedupe:"
	defaultTTL       = 72 * time.Hour
)

// ErrRedisUnavailable is returned when the Redis deduper cannot reach its server.
var ErrRedisUnavailable = errors.New("dedupe: redis unavailable")

// RedisDeduper shares seen keys between service replicas using SET NX with a TTL.
// Size only counts keys recorded through this instance.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	local  atomic.Int64
}

// NewRedisDeduper wraps an existing client and verifies it with PING.
func NewRedisDeduper(ctx context.Context, client redis.UniversalClient, opts ...RedisOption) (*RedisDeduper, error) {
	d := &RedisDeduper{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return d, nil
}

func (d *RedisDeduper) key(k string) string {
	return d.prefix + k
}

func (d *RedisDeduper) SeenAndRecord(ctx context.Context, key string) (bool, error) {
	created, err := d.client.SetNX(ctx, d.key(key), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx %s: %w", key, err)
	}
	if !created {
		return true, nil
	}
	d.local.Add(1)
	return false, nil
}

func (d *RedisDeduper) Unrecord(ctx context.Context, key string) error {
	n, err := d.client.Del(ctx, d.key(key)).Result()
	if err != nil {
		return fmt.Errorf("dedupe del %s: %w", key, err)
	}
	if n > 0 {
		d.local.Add(-1)
	}
	return nil
}

func (d *RedisDeduper) Size() int64 {
	return d.local.Load()
}

// Close releases the underlying client.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
