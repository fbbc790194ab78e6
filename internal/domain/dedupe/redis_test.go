package dedupe_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edustream/internal/domain/dedupe"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisDeduper(t *testing.T) *dedupe.RedisDeduper {
	t.Helper()
	addr := os.Getenv("EDUSTREAM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EDUSTREAM_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	d, err := dedupe.NewRedisDeduper(ctx, client,
		dedupe.WithTTL(time.Minute),
		dedupe.WithKeyPrefix("edustream:test:"+uuid.NewString()+":"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestRedisDeduper_SeenAndRecord(t *testing.T) {
	d := newRedisDeduper(t)
	ctx := context.Background()

	seen, err := d.SeenAndRecord(ctx, "attendance:a-1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, int64(1), d.Size())

	seen, err = d.SeenAndRecord(ctx, "attendance:a-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, int64(1), d.Size())
}

func TestRedisDeduper_Unrecord(t *testing.T) {
	d := newRedisDeduper(t)
	ctx := context.Background()

	_, err := d.SeenAndRecord(ctx, "assignment:x")
	require.NoError(t, err)
	require.NoError(t, d.Unrecord(ctx, "assignment:x"))
	assert.Equal(t, int64(0), d.Size())

	seen, err := d.SeenAndRecord(ctx, "assignment:x")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.Unrecord(ctx, "never-recorded"))
}

func TestRedisDeduper_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	_, err := dedupe.NewRedisDeduper(ctx, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, dedupe.ErrRedisUnavailable)
}
