package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// RedisNotesCache stores generated lecture notes keyed by normalized title.
type RedisNotesCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisNotesCache creates a new RedisNotesCache.
func NewRedisNotesCache(rdb *redis.Client, ttl time.Duration) *RedisNotesCache {
	return &RedisNotesCache{rdb: rdb, ttl: ttl}
}

// Get returns cached notes for lectureTitle, or ErrMiss.
func (c *RedisNotesCache) Get(ctx context.Context, lectureTitle string) (string, error) {
	notes, err := c.rdb.Get(ctx, config.CacheKey.LectureNotesKey(lectureTitle)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return notes, err
}

// Set caches notes for lectureTitle until the TTL passes.
func (c *RedisNotesCache) Set(ctx context.Context, lectureTitle, notes string) error {
	return c.rdb.Set(ctx, config.CacheKey.LectureNotesKey(lectureTitle), notes, c.ttl).Err()
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryNotesCache is a TTL map with the same keying as RedisNotesCache.
type MemoryNotesCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time
}

// NewMemoryNotesCache creates a new MemoryNotesCache.
func NewMemoryNotesCache(ttl time.Duration) *MemoryNotesCache {
	return &MemoryNotesCache{entries: make(map[string]memoryEntry), ttl: ttl, clock: time.Now}
}

// Get returns unexpired notes for lectureTitle, or ErrMiss.
func (c *MemoryNotesCache) Get(_ context.Context, lectureTitle string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[config.CacheKey.LectureNotesKey(lectureTitle)]
	if !ok || !c.clock().Before(e.expires) {
		return "", ErrMiss
	}
	return e.value, nil
}

// Set caches notes for lectureTitle until the TTL passes.
func (c *MemoryNotesCache) Set(_ context.Context, lectureTitle, notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[config.CacheKey.LectureNotesKey(lectureTitle)] = memoryEntry{
		value:   notes,
		expires: c.clock().Add(c.ttl),
	}
	return nil
}
