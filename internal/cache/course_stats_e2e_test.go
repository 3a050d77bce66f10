//go:build e2e
// +build e2e

package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExecAborted = errors.New("exec aborted")

// cancelOnExec cancels the caller's context and fails every pipeline, the
// way a request that times out mid-transaction does.
type cancelOnExec struct {
	cancel context.CancelFunc
}

func (h cancelOnExec) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h cancelOnExec) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h cancelOnExec) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(context.Context, []redis.Cmder) error {
		h.cancel()
		return errExecAborted
	}
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	_ = godotenv.Load("../../.env")

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisCourseStatsClearsMarkerWhenContextIsCancelled(t *testing.T) {
	plain := newRedisClient(t)
	hooked := newRedisClient(t)

	eventID := uuid.NewString()
	courseID := "stats-e2e-" + uuid.NewString()[:8]
	processedKey := config.CacheKey.ProcessedEventKey(eventID)
	statsKey := config.CacheKey.CourseMockTestStatsKey(courseID)
	t.Cleanup(func() { plain.Del(context.Background(), processedKey, statsKey) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hooked.AddHook(cancelOnExec{cancel: cancel})

	recorded, err := NewRedisCourseStats(hooked, zerolog.Nop()).Record(ctx, eventID, courseID, 80, true)
	require.ErrorIs(t, err, errExecAborted)
	assert.False(t, recorded)
	require.Error(t, ctx.Err())

	exists, err := plain.Exists(context.Background(), processedKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	// The redelivered event is counted.
	stats := NewRedisCourseStats(plain, zerolog.Nop())
	recorded, err = stats.Record(context.Background(), eventID, courseID, 80, true)
	require.NoError(t, err)
	assert.True(t, recorded)

	got, err := stats.Get(context.Background(), courseID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Attempts)
	assert.Equal(t, int64(1), got.Passed)
}
