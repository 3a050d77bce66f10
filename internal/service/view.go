package service

import (
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
)

// NewSessionView is the only place a MockTestSession is turned into
// something a client may see. Questions lose their correct index here.
func NewSessionView(s *model.MockTestSession, now time.Time) *model.SessionView {
	questions := make([]model.QuestionView, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = model.QuestionView{
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options[:]...),
		}
	}

	answers := make([]model.Answer, len(s.Answers))
	copy(answers, s.Answers)

	var score *int
	if s.Score != nil {
		v := *s.Score
		score = &v
	}

	return &model.SessionView{
		ID:               s.ID,
		Course:           s.CourseID,
		CourseTitle:      s.CourseTitle,
		Questions:        questions,
		Answers:          answers,
		Status:           s.Status,
		StartedAt:        s.StartedAt,
		ExpiresAt:        s.ExpiresAt,
		RemainingSeconds: s.RemainingSeconds(now),
		Score:            score,
	}
}
