package cache

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProcessedEventTTL bounds how long event ids are remembered for dedup.
const ProcessedEventTTL = 7 * 24 * time.Hour

const (
	fieldAttempts = "attempts"
	fieldPassed   = "passed"
	fieldScoreSum = "score_sum"
)

// RedisCourseStats keeps per-course aggregates of finished mock tests in a
// Redis hash.
type RedisCourseStats struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisCourseStats creates a new RedisCourseStats.
func NewRedisCourseStats(rdb *redis.Client, log zerolog.Logger) *RedisCourseStats {
	return &RedisCourseStats{rdb: rdb, log: log.With().Str("component", "course_stats").Logger()}
}

// Record folds one finished attempt into the course aggregates. It returns
// false without touching the aggregates when eventID was already recorded.
func (s *RedisCourseStats) Record(ctx context.Context, eventID, courseID string, score int, passed bool) (bool, error) {
	processedKey := config.CacheKey.ProcessedEventKey(eventID)
	fresh, err := s.rdb.SetNX(ctx, processedKey, 1, ProcessedEventTTL).Result()
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, nil
	}

	key := config.CacheKey.CourseMockTestStatsKey(courseID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldAttempts, 1)
		if passed {
			pipe.HIncrBy(ctx, key, fieldPassed, 1)
		}
		pipe.HIncrBy(ctx, key, fieldScoreSum, int64(score))
		return nil
	})
	if err != nil {
		// Let a redelivery retry the increment, even when ctx is already gone.
		if delErr := s.rdb.Del(context.WithoutCancel(ctx), processedKey).Err(); delErr != nil {
			s.log.Error().Err(delErr).
				Str("event_id", eventID).
				Msg("Failed to clear processed marker, redelivery will be skipped")
		}
		return false, err
	}
	return true, nil
}

// Get returns the aggregates of courseID. A course without attempts yields
// zero values.
func (s *RedisCourseStats) Get(ctx context.Context, courseID string) (model.CourseStats, error) {
	fields, err := s.rdb.HGetAll(ctx, config.CacheKey.CourseMockTestStatsKey(courseID)).Result()
	if err != nil {
		return model.CourseStats{CourseID: courseID}, err
	}
	parse := func(name string) int64 {
		n, _ := strconv.ParseInt(fields[name], 10, 64)
		return n
	}
	return buildStats(courseID, parse(fieldAttempts), parse(fieldPassed), parse(fieldScoreSum)), nil
}

type courseTotals struct {
	attempts, passed, scoreSum int64
}

// MemoryCourseStats is the in-process counterpart of RedisCourseStats.
type MemoryCourseStats struct {
	mu        sync.Mutex
	totals    map[string]*courseTotals
	processed map[string]struct{}
}

// NewMemoryCourseStats creates a new MemoryCourseStats.
func NewMemoryCourseStats() *MemoryCourseStats {
	return &MemoryCourseStats{
		totals:    make(map[string]*courseTotals),
		processed: make(map[string]struct{}),
	}
}

// Record folds one finished attempt into the course aggregates once per eventID.
func (s *MemoryCourseStats) Record(_ context.Context, eventID, courseID string, score int, passed bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.processed[eventID]; seen {
		return false, nil
	}
	s.processed[eventID] = struct{}{}

	t, ok := s.totals[courseID]
	if !ok {
		t = &courseTotals{}
		s.totals[courseID] = t
	}
	t.attempts++
	if passed {
		t.passed++
	}
	t.scoreSum += int64(score)
	return true, nil
}

// Get returns the aggregates of courseID.
func (s *MemoryCourseStats) Get(_ context.Context, courseID string) (model.CourseStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.totals[courseID]
	if !ok {
		return model.CourseStats{CourseID: courseID}, nil
	}
	return buildStats(courseID, t.attempts, t.passed, t.scoreSum), nil
}

func buildStats(courseID string, attempts, passed, scoreSum int64) model.CourseStats {
	stats := model.CourseStats{CourseID: courseID, Attempts: attempts, Passed: passed}
	if attempts > 0 {
		stats.AverageScore = math.Round(float64(scoreSum)/float64(attempts)*100) / 100
	}
	return stats
}
