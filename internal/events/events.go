// Package events carries mock test lifecycle events over a watermill bus.
package events

import (
	"encoding/json"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/google/uuid"
)

// EventType names a mock test lifecycle transition.
type EventType string

const (
	EventMockTestStarted   EventType = "mocktest.started"
	EventMockTestSubmitted EventType = "mocktest.submitted"
	EventMockTestExpired   EventType = "mocktest.expired"
)

const (
	eventVersion = "1.0"
	eventSource  = "lms-mocktest"
)

// MockTestEvent is the payload published for every session transition.
// Score and Pass are only set on terminal events.
type MockTestEvent struct {
	ID        string               `json:"id"`
	Type      EventType            `json:"type"`
	Version   string               `json:"version"`
	Source    string               `json:"source"`
	Timestamp time.Time            `json:"timestamp"`
	SessionID uuid.UUID            `json:"sessionId"`
	UserID    string               `json:"userId"`
	CourseID  string               `json:"courseId"`
	Status    model.MockTestStatus `json:"status"`
	Score     *int                 `json:"score,omitempty"`
	Pass      *bool                `json:"pass,omitempty"`
}

// IsTerminal reports whether the event closes a session.
func (e *MockTestEvent) IsTerminal() bool {
	return e.Type == EventMockTestSubmitted || e.Type == EventMockTestExpired
}

// NewSessionEvent builds the event for s entering its current state.
func NewSessionEvent(s *model.MockTestSession, at time.Time) *MockTestEvent {
	e := &MockTestEvent{
		ID:        uuid.NewString(),
		Version:   eventVersion,
		Source:    eventSource,
		Timestamp: at.UTC(),
		SessionID: s.ID,
		UserID:    s.UserID,
		CourseID:  s.CourseID,
		Status:    s.Status,
	}
	switch s.Status {
	case model.MockTestStatusSubmitted:
		e.Type = EventMockTestSubmitted
	case model.MockTestStatusExpired:
		e.Type = EventMockTestExpired
	default:
		e.Type = EventMockTestStarted
	}
	if s.Score != nil {
		score := *s.Score
		pass := score >= model.PassMark
		e.Score, e.Pass = &score, &pass
	}
	return e
}

// Decode parses a published event payload.
func Decode(payload []byte) (*MockTestEvent, error) {
	var e MockTestEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
