package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aditya06pandey1368/LMS-Project/internal/cache"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/rs/zerolog"
)

// NotesGenerator writes study notes for a lecture title.
type NotesGenerator interface {
	GenerateNotes(ctx context.Context, lectureTitle string) (string, error)
}

// NotesCache stores generated notes by lecture title.
type NotesCache interface {
	Get(ctx context.Context, lectureTitle string) (string, error)
	Set(ctx context.Context, lectureTitle, notes string) error
}

// NoteService generates quick study notes for lectures.
type NoteService struct {
	generator NotesGenerator
	cache     NotesCache
	log       zerolog.Logger
}

// NewNoteService creates a new NoteService. cache may be nil.
func NewNoteService(generator NotesGenerator, cache NotesCache, log zerolog.Logger) *NoteService {
	return &NoteService{
		generator: generator,
		cache:     cache,
		log:       log.With().Str("component", "note_service").Logger(),
	}
}

// Generate returns notes for lectureTitle, serving repeated titles from cache.
func (s *NoteService) Generate(ctx context.Context, lectureTitle string) (*model.NotesResponse, error) {
	lectureTitle = strings.TrimSpace(lectureTitle)
	if lectureTitle == "" {
		return nil, invalidInput("lectureTitle is required")
	}

	if s.cache != nil {
		notes, err := s.cache.Get(ctx, lectureTitle)
		switch {
		case err == nil:
			return &model.NotesResponse{Notes: notes, Cached: true}, nil
		case !errors.Is(err, cache.ErrMiss):
			s.log.Warn().Err(err).Msg("Notes cache read failed")
		}
	}

	notes, err := s.generator.GenerateNotes(ctx, lectureTitle)
	if err != nil {
		s.log.Error().Err(err).Str("lecture_title", lectureTitle).Msg("Notes generation failed")
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, lectureTitle, notes); err != nil {
			s.log.Warn().Err(err).Msg("Notes cache write failed")
		}
	}
	return &model.NotesResponse{Notes: notes}, nil
}
