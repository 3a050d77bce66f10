package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MockTestStatus enumerates mock test session states.
type MockTestStatus string

const (
	MockTestStatusActive    MockTestStatus = "active"
	MockTestStatusSubmitted MockTestStatus = "submitted"
	MockTestStatusExpired   MockTestStatus = "expired"
)

// IsTerminal reports whether the status no longer accepts answers.
func (s MockTestStatus) IsTerminal() bool {
	return s == MockTestStatusSubmitted || s == MockTestStatusExpired
}

const (
	// QuestionsPerTest is the fixed size of every generated question bank.
	QuestionsPerTest = 10
	// OptionsPerQuestion is the fixed number of choices per question.
	OptionsPerQuestion = 4
	// DefaultDurationSeconds is the time box of a session (15 minutes).
	DefaultDurationSeconds = 15 * 60
	// PassMark is the minimum percentage score that counts as a pass.
	PassMark = 50
)

// Answer is a student's selection for one question of a session.
type Answer struct {
	QuestionIndex int `json:"questionIndex"`
	SelectedIndex int `json:"selectedIndex"`
}

// MockTestSession is one timed attempt of a user at a course's mock test.
// It carries the answer key and must never be serialized to a client;
// use service.NewSessionView instead.
type MockTestSession struct {
	ID              uuid.UUID
	UserID          string
	CourseID        string
	CourseTitle     string
	Questions       []Question
	Answers         []Answer
	Status          MockTestStatus
	StartedAt       time.Time
	ExpiresAt       time.Time
	SubmittedAt     *time.Time
	DurationSeconds int
	Score           *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RemainingSeconds returns the whole seconds left before expiry.
// Sessions that already left the active state have no time left.
func (s *MockTestSession) RemainingSeconds(now time.Time) int {
	if s.Status != MockTestStatusActive {
		return 0
	}
	return wholeSecondsUntil(s.ExpiresAt, now)
}

// Elapsed reports whether the time box is used up at now.
func (s *MockTestSession) Elapsed(now time.Time) bool {
	return wholeSecondsUntil(s.ExpiresAt, now) <= 0
}

// UpsertAnswer stores a for its question index, replacing any earlier
// selection for the same index. Answers stay ordered by question index.
func (s *MockTestSession) UpsertAnswer(a Answer) {
	for i := range s.Answers {
		if s.Answers[i].QuestionIndex == a.QuestionIndex {
			s.Answers[i].SelectedIndex = a.SelectedIndex
			return
		}
	}
	s.Answers = append(s.Answers, a)
	sort.Slice(s.Answers, func(i, j int) bool {
		return s.Answers[i].QuestionIndex < s.Answers[j].QuestionIndex
	})
}

// Clone returns a deep copy so stores can hand out sessions without sharing
// slices with their internal state.
func (s *MockTestSession) Clone() *MockTestSession {
	c := *s
	c.Questions = append([]Question(nil), s.Questions...)
	c.Answers = append([]Answer(nil), s.Answers...)
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		c.SubmittedAt = &t
	}
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	return &c
}

func wholeSecondsUntil(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// ─── Client-facing projections ─────────────────────────────────────────

// QuestionView is a question as shown to the student: no answer key.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// SessionView is the redacted projection of a MockTestSession.
type SessionView struct {
	ID               uuid.UUID      `json:"id"`
	Course           string         `json:"course"`
	CourseTitle      string         `json:"courseTitle"`
	Questions        []QuestionView `json:"questions"`
	Answers          []Answer       `json:"answers"`
	Status           MockTestStatus `json:"status"`
	StartedAt        time.Time      `json:"startedAt"`
	ExpiresAt        time.Time      `json:"expiresAt"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Score            *int           `json:"score"`
}

// ScoreResult is returned by submit.
type ScoreResult struct {
	Score  int            `json:"score"`
	Status MockTestStatus `json:"status"`
	Pass   bool           `json:"pass"`
}

// ScoreSummary describes the last finished attempt of a user on a course.
type ScoreSummary struct {
	Score       int            `json:"score"`
	Status      MockTestStatus `json:"status"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// HistoryEntry is one finished attempt in a user's history for a course.
type HistoryEntry struct {
	ID          uuid.UUID      `json:"id"`
	CourseTitle string         `json:"courseTitle"`
	Score       int            `json:"score"`
	Status      MockTestStatus `json:"status"`
	Pass        bool           `json:"pass"`
	StartedAt   time.Time      `json:"startedAt"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// CourseStats aggregates finished attempts across all users of a course.
type CourseStats struct {
	CourseID     string  `json:"courseId"`
	Attempts     int64   `json:"attempts"`
	Passed       int64   `json:"passed"`
	AverageScore float64 `json:"averageScore"`
}

// ─── Requests ──────────────────────────────────────────────────────────

// StartMockTestRequest is the payload for starting (or resuming) a session.
type StartMockTestRequest struct {
	CourseID    string `json:"courseId" binding:"required,notblank,max=64"`
	CourseTitle string `json:"courseTitle" binding:"required,notblank,max=200"`
}

// RecordAnswerRequest is the payload for saving a single answer.
type RecordAnswerRequest struct {
	SessionID     string `json:"sessionId" binding:"required,uuid"`
	QuestionIndex *int   `json:"questionIndex" binding:"required,min=0,max=9"`
	SelectedIndex *int   `json:"selectedIndex" binding:"required,min=0,max=3"`
}

// SubmitMockTestRequest is the payload for submitting a session.
type SubmitMockTestRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
}
