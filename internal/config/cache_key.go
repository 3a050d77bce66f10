package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// MockTestStartLockKey returns the lock key guarding session creation for a user on a course
func (r *CacheKeyStruct) MockTestStartLockKey(userID, courseID string) string {
	return fmt.Sprintf("user:%s:course:%s:mocktest_start", userID, courseID)
}

// LectureNotesKey returns the cache key for generated notes of a lecture title.
// Titles are normalized and hashed so arbitrary user text never lands in a key.
func (r *CacheKeyStruct) LectureNotesKey(lectureTitle string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(lectureTitle))))
	return fmt.Sprintf("notes:%s", hex.EncodeToString(sum[:]))
}

// CourseMockTestStatsKey returns the hash key holding a course's mock test aggregates
func (r *CacheKeyStruct) CourseMockTestStatsKey(courseID string) string {
	return fmt.Sprintf("course:%s:mocktest_stats", courseID)
}

// ProcessedEventKey marks an event as already projected into the stats hash
func (r *CacheKeyStruct) ProcessedEventKey(eventID string) string {
	return fmt.Sprintf("mocktest_event:%s:processed", eventID)
}

var CacheKey = NewCacheKeyStruct()
