package websocket

import (
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionState  Action = "state"
	ActionPing   Action = "ping"
)

// Request is a single client message. Only answer uses the index fields;
// they are pointers so a missing index is told apart from index 0.
type Request struct {
	Action        Action `json:"action"`
	QuestionIndex *int   `json:"questionIndex,omitempty"`
	SelectedIndex *int   `json:"selectedIndex,omitempty"`
}

// AnswerPayload is the validated form of an answer action.
type AnswerPayload struct {
	QuestionIndex *int `json:"questionIndex" binding:"required,min=0,max=9"`
	SelectedIndex *int `json:"selectedIndex" binding:"required,min=0,max=3"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventState  Event = "state"
	EventResult Event = "result"
	EventPong   Event = "pong"
)

type SavedResponse struct {
	Event         Event `json:"event"`
	QuestionIndex int   `json:"questionIndex"`
	SelectedIndex int   `json:"selectedIndex"`
}

type StateResponse struct {
	Event   Event              `json:"event"`
	Session *model.SessionView `json:"session"`
}

type ResultResponse struct {
	Event  Event              `json:"event"`
	Result *model.ScoreResult `json:"result"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
