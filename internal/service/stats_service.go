package service

import (
	"context"
	"strings"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
)

// CourseStatsReader reads the per-course projection kept by the stats worker.
type CourseStatsReader interface {
	Get(ctx context.Context, courseID string) (model.CourseStats, error)
}

// StatsService exposes course-wide mock test aggregates.
type StatsService struct {
	reader CourseStatsReader
}

// NewStatsService creates a new StatsService.
func NewStatsService(reader CourseStatsReader) *StatsService {
	return &StatsService{reader: reader}
}

// CourseStats returns attempts, passes and the average score of a course.
func (s *StatsService) CourseStats(ctx context.Context, courseID string) (*model.CourseStats, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, invalidInput("courseId is required")
	}
	stats, err := s.reader.Get(ctx, courseID)
	if err != nil {
		return nil, storageErr("read course stats", err)
	}
	return &stats, nil
}
