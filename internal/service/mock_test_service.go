package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/cache"
	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/events"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/Aditya06pandey1368/LMS-Project/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HistoryLimit caps how many finished attempts History returns.
const HistoryLimit = 100

// finalizeAttempts bounds how often finalize rescores a session whose
// answers keep changing under it.
const finalizeAttempts = 3

// SessionStore persists mock test sessions.
type SessionStore interface {
	FindActive(ctx context.Context, userID, courseID string) (*model.MockTestSession, error)
	FindByID(ctx context.Context, sessionID uuid.UUID, userID string) (*model.MockTestSession, error)
	FindLastFinished(ctx context.Context, userID, courseID string) (*model.MockTestSession, error)
	ListFinished(ctx context.Context, userID, courseID string, limit int) ([]model.MockTestSession, error)
	Create(ctx context.Context, s *model.MockTestSession) error
	Save(ctx context.Context, s *model.MockTestSession) error
	SaveAnswer(ctx context.Context, sessionID uuid.UUID, userID string, a model.Answer, now time.Time) error
}

// QuestionGenerator produces the question bank of a new session.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, topic string) ([]model.Question, error)
}

// Locker grants short exclusive locks without waiting.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (cache.UnlockFunc, bool, error)
}

// EventPublisher receives session lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event *events.MockTestEvent) error
}

// MockTestService owns the mock test session state machine: start or
// resume, answer recording, lazy expiry, scoring and submission.
type MockTestService struct {
	store     SessionStore
	generator QuestionGenerator
	locker    Locker
	publisher EventPublisher
	duration  time.Duration
	lockTTL   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewMockTestService creates a new MockTestService. locker and publisher
// may be nil.
func NewMockTestService(
	store SessionStore,
	generator QuestionGenerator,
	locker Locker,
	publisher EventPublisher,
	cfg *config.Config,
	log zerolog.Logger,
) *MockTestService {
	duration := cfg.MockTestDuration
	if duration <= 0 {
		duration = model.DefaultDurationSeconds * time.Second
	}
	lockTTL := cfg.StartLockTTL
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &MockTestService{
		store:     store,
		generator: generator,
		locker:    locker,
		publisher: publisher,
		duration:  duration,
		lockTTL:   lockTTL,
		now:       time.Now,
		log:       log.With().Str("component", "mocktest_service").Logger(),
	}
}

// Start resumes the user's active session on the course or creates a new
// one with a freshly generated question bank.
func (s *MockTestService) Start(ctx context.Context, userID, courseID, courseTitle string) (*model.SessionView, error) {
	courseID = strings.TrimSpace(courseID)
	courseTitle = strings.TrimSpace(courseTitle)
	if userID == "" || courseID == "" || courseTitle == "" {
		return nil, invalidInput("courseId and courseTitle are required")
	}

	if view, err := s.resumeActive(ctx, userID, courseID); view != nil || err != nil {
		return view, err
	}

	if s.locker != nil {
		unlock, acquired, err := s.locker.TryLock(ctx, config.CacheKey.MockTestStartLockKey(userID, courseID), s.lockTTL)
		switch {
		case err != nil:
			// The unique index still prevents duplicates without the lock.
			s.log.Warn().Err(err).Str("user_id", userID).Msg("Start lock unavailable")
		case !acquired:
			return nil, ErrStartInProgress
		default:
			defer unlock(context.WithoutCancel(ctx))
			// Another start may have finished between the lookup and the lock.
			if view, err := s.resumeActive(ctx, userID, courseID); view != nil || err != nil {
				return view, err
			}
		}
	}

	questions, err := s.generator.GenerateQuestions(ctx, courseTitle)
	if err == nil {
		err = model.ValidateQuestionBank(questions)
	}
	if err != nil {
		s.log.Error().Err(err).Str("course_id", courseID).Msg("Question generation failed")
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	now := s.now()
	session := &model.MockTestSession{
		ID:              uuid.New(),
		UserID:          userID,
		CourseID:        courseID,
		CourseTitle:     courseTitle,
		Questions:       questions,
		Answers:         []model.Answer{},
		Status:          model.MockTestStatusActive,
		StartedAt:       now,
		ExpiresAt:       now.Add(s.duration),
		DurationSeconds: int(s.duration / time.Second),
	}

	if err := s.store.Create(ctx, session); err != nil {
		if !errors.Is(err, repository.ErrActiveSessionExists) {
			return nil, storageErr("create session", err)
		}
		// Concurrent start detected; hand back the session that won.
		winner, ferr := s.store.FindActive(ctx, userID, courseID)
		if ferr != nil {
			return nil, storageErr("refetch active session", ferr)
		}
		s.log.Info().Str("session_id", winner.ID.String()).Msg("Concurrent start detected, resuming existing session")
		return NewSessionView(winner, s.now()), nil
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("user_id", userID).
		Str("course_id", courseID).
		Msg("Mock test started")
	s.publish(ctx, session, now)

	return NewSessionView(session, now), nil
}

// resumeActive returns the view of an unexpired active session. An active
// session whose time is up is expired on the way. A nil view and nil error
// mean there is nothing to resume.
func (s *MockTestService) resumeActive(ctx context.Context, userID, courseID string) (*model.SessionView, error) {
	active, err := s.store.FindActive(ctx, userID, courseID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find active session", err)
	}

	now := s.now()
	if !active.Elapsed(now) {
		return NewSessionView(active, now), nil
	}
	if err := s.finalize(ctx, active, now); err != nil {
		return nil, err
	}
	return nil, nil
}

// RecordAnswer stores selectedIndex for questionIndex, replacing any earlier
// answer. An elapsed session is expired and the answer is dropped.
func (s *MockTestService) RecordAnswer(ctx context.Context, userID string, sessionID uuid.UUID, questionIndex, selectedIndex int) error {
	if questionIndex < 0 || questionIndex >= model.QuestionsPerTest {
		return invalidInput("questionIndex must be between 0 and %d", model.QuestionsPerTest-1)
	}
	if selectedIndex < 0 || selectedIndex >= model.OptionsPerQuestion {
		return invalidInput("selectedIndex must be between 0 and %d", model.OptionsPerQuestion-1)
	}

	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.MockTestStatusActive {
		return ErrSessionNotActive
	}

	now := s.now()
	if session.Elapsed(now) {
		return s.expireOnAnswer(ctx, session, now)
	}

	answer := model.Answer{QuestionIndex: questionIndex, SelectedIndex: selectedIndex}
	err = s.store.SaveAnswer(ctx, sessionID, userID, answer, now)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrSessionNotActive) {
		return storageErr("save answer", err)
	}

	// The session changed under us: finished by a concurrent submit, or the
	// deadline passed between the check and the write.
	current, lerr := s.load(ctx, userID, sessionID)
	if lerr != nil {
		return lerr
	}
	now = s.now()
	if current.Status != model.MockTestStatusActive || !current.Elapsed(now) {
		return ErrSessionNotActive
	}
	return s.expireOnAnswer(ctx, current, now)
}

// expireOnAnswer finalizes an elapsed session hit by an answer. The answer
// is never stored.
func (s *MockTestService) expireOnAnswer(ctx context.Context, session *model.MockTestSession, now time.Time) error {
	if err := s.finalize(ctx, session, now); err != nil {
		return err
	}
	if session.Status != model.MockTestStatusExpired {
		// A concurrent submit got there first.
		return ErrSessionNotActive
	}
	return ErrSessionExpired
}

// Submit scores and closes the session. Submitting a finished session
// returns its stored result.
func (s *MockTestService) Submit(ctx context.Context, userID string, sessionID uuid.UUID) (*model.ScoreResult, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == model.MockTestStatusActive {
		if err := s.finalize(ctx, session, s.now()); err != nil {
			return nil, err
		}
	}

	score := 0
	if session.Score != nil {
		score = *session.Score
	}
	return &model.ScoreResult{Score: score, Status: session.Status, Pass: Passed(score)}, nil
}

// GetSession returns the redacted view of a session, expiring it first if
// its time is up.
func (s *MockTestService) GetSession(ctx context.Context, userID string, sessionID uuid.UUID) (*model.SessionView, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if session.Status == model.MockTestStatusActive && session.Elapsed(now) {
		if err := s.finalize(ctx, session, now); err != nil {
			return nil, err
		}
	}
	return NewSessionView(session, now), nil
}

// GetLastResult returns the latest finished attempt on a course, or nil
// when the user has none.
func (s *MockTestService) GetLastResult(ctx context.Context, userID, courseID string) (*model.ScoreSummary, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, invalidInput("courseId is required")
	}

	last, err := s.store.FindLastFinished(ctx, userID, courseID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find last result", err)
	}

	summary := &model.ScoreSummary{Status: last.Status, SubmittedAt: finishedAt(last)}
	if last.Score != nil {
		summary.Score = *last.Score
	}
	return summary, nil
}

// History lists the user's finished attempts on a course, newest first.
func (s *MockTestService) History(ctx context.Context, userID, courseID string) ([]model.HistoryEntry, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, invalidInput("courseId is required")
	}

	sessions, err := s.store.ListFinished(ctx, userID, courseID, HistoryLimit)
	if err != nil {
		return nil, storageErr("list finished sessions", err)
	}

	entries := make([]model.HistoryEntry, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		score := 0
		if sess.Score != nil {
			score = *sess.Score
		}
		entries = append(entries, model.HistoryEntry{
			ID:          sess.ID,
			CourseTitle: sess.CourseTitle,
			Score:       score,
			Status:      sess.Status,
			Pass:        Passed(score),
			StartedAt:   sess.StartedAt,
			SubmittedAt: finishedAt(sess),
		})
	}
	return entries, nil
}

func (s *MockTestService) load(ctx context.Context, userID string, sessionID uuid.UUID) (*model.MockTestSession, error) {
	session, err := s.store.FindByID(ctx, sessionID, userID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storageErr("load session", err)
	}
	return session, nil
}

// finalize scores an active session and moves it to submitted, or to
// expired when its time is up. The write only lands if the answers it scored
// are still the stored ones; an answer recorded in between forces a rescore.
// If another request finalized the session first, the stored outcome is
// loaded into session instead.
func (s *MockTestService) finalize(ctx context.Context, session *model.MockTestSession, now time.Time) error {
	status := model.MockTestStatusSubmitted
	if session.Elapsed(now) {
		status = model.MockTestStatusExpired
	}

	for attempt := 1; ; attempt++ {
		score := Score(session.Questions, session.Answers)
		session.Status = status
		session.Score = &score
		session.SubmittedAt = &now

		err := s.store.Save(ctx, session)
		if err == nil {
			s.log.Info().
				Str("session_id", session.ID.String()).
				Str("status", string(status)).
				Int("score", score).
				Msg("Mock test finished")
			s.publish(ctx, session, now)
			return nil
		}
		if !errors.Is(err, repository.ErrSessionNotActive) && !errors.Is(err, repository.ErrAnswersChanged) {
			return storageErr("finalize session", err)
		}

		stored, ferr := s.store.FindByID(ctx, session.ID, session.UserID)
		if ferr != nil {
			return storageErr("reload session", ferr)
		}
		*session = *stored
		if session.Status != model.MockTestStatusActive {
			return nil
		}
		if attempt == finalizeAttempts {
			return storageErr("finalize session", err)
		}
		s.log.Debug().
			Str("session_id", session.ID.String()).
			Int("attempt", attempt).
			Msg("Answers changed during finalize, rescoring")
	}
}

// publish is fire-and-forget: a lost event never fails the request.
func (s *MockTestService) publish(ctx context.Context, session *model.MockTestSession, at time.Time) {
	if s.publisher == nil {
		return
	}
	event := events.NewSessionEvent(session, at)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", string(event.Type)).
			Str("session_id", session.ID.String()).
			Msg("Failed to publish event")
	}
}

func finishedAt(s *model.MockTestSession) time.Time {
	if s.SubmittedAt != nil {
		return *s.SubmittedAt
	}
	return s.UpdatedAt
}
