package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionTimeBox(t *testing.T) {
	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	s := &MockTestSession{
		Status:    MockTestStatusActive,
		StartedAt: start,
		ExpiresAt: start.Add(DefaultDurationSeconds * time.Second),
	}

	assert.Equal(t, DefaultDurationSeconds, s.RemainingSeconds(start))
	assert.Equal(t, 1, s.RemainingSeconds(s.ExpiresAt.Add(-1500*time.Millisecond)))
	assert.False(t, s.Elapsed(s.ExpiresAt.Add(-time.Second)))

	// Less than a whole second left counts as elapsed.
	assert.True(t, s.Elapsed(s.ExpiresAt.Add(-500*time.Millisecond)))
	assert.True(t, s.Elapsed(s.ExpiresAt.Add(time.Hour)))
	assert.Zero(t, s.RemainingSeconds(s.ExpiresAt.Add(time.Hour)))

	s.Status = MockTestStatusSubmitted
	assert.Zero(t, s.RemainingSeconds(start))
}

func TestUpsertAnswerKeepsOneAnswerPerQuestion(t *testing.T) {
	s := &MockTestSession{}
	s.UpsertAnswer(Answer{QuestionIndex: 7, SelectedIndex: 1})
	s.UpsertAnswer(Answer{QuestionIndex: 2, SelectedIndex: 3})
	s.UpsertAnswer(Answer{QuestionIndex: 7, SelectedIndex: 0})

	assert.Equal(t, []Answer{
		{QuestionIndex: 2, SelectedIndex: 3},
		{QuestionIndex: 7, SelectedIndex: 0},
	}, s.Answers)
}

func TestCloneDoesNotShareState(t *testing.T) {
	score := 40
	at := time.Now()
	s := &MockTestSession{
		Answers:     []Answer{{QuestionIndex: 0, SelectedIndex: 1}},
		Score:       &score,
		SubmittedAt: &at,
	}

	c := s.Clone()
	c.Answers[0].SelectedIndex = 3
	*c.Score = 90

	assert.Equal(t, 1, s.Answers[0].SelectedIndex)
	assert.Equal(t, 40, *s.Score)
	assert.NotSame(t, s.SubmittedAt, c.SubmittedAt)
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, MockTestStatusActive.IsTerminal())
	assert.True(t, MockTestStatusSubmitted.IsTerminal())
	assert.True(t, MockTestStatusExpired.IsTerminal())
}
