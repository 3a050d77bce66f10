package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Aditya06pandey1368/LMS-Project/internal/middleware"
	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/Aditya06pandey1368/LMS-Project/internal/validator"
	ws "github.com/Aditya06pandey1368/LMS-Project/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler streams a mock test session over a WebSocket. Every action goes
// through MockTestService, so timing, validation and redaction are the same
// as over HTTP.
type WSHandler struct {
	mockTestService *service.MockTestService
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(mockTestService *service.MockTestService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		mockTestService: mockTestService,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        ws.NewUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/mocktests/:sessionId/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Ownership is checked before the upgrade so failures stay plain HTTP.
	ctx := c.Request.Context()
	view, err := h.mockTestService.GetSession(ctx, userID, sessionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", userID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Student connected")

	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Session: view}); err != nil {
		return
	}

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if ws.WriteError(conn, string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload)) != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var out interface{}
		switch msg.Action {
		case ws.ActionAnswer:
			out = h.handleAnswer(c, userID, sessionID, &msg)
		case ws.ActionSubmit:
			result, err := h.mockTestService.Submit(ctx, userID, sessionID)
			if err != nil {
				out = h.errorEvent(wsLog, err)
			} else {
				out = ws.ResultResponse{Event: ws.EventResult, Result: result}
			}
		case ws.ActionState:
			view, err := h.mockTestService.GetSession(ctx, userID, sessionID)
			if err != nil {
				out = h.errorEvent(wsLog, err)
			} else {
				out = ws.StateResponse{Event: ws.EventState, Session: view}
			}
		case ws.ActionPing:
			out = ws.PongResponse{Event: ws.EventPong}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			out = ws.ErrorResponse{Event: ws.EventError, Code: string(response.ErrInvalidPayload), Error: "unknown action: " + string(msg.Action)}
		}

		if err := ws.WriteTyped(conn, out); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

func (h *WSHandler) handleAnswer(c *gin.Context, userID string, sessionID uuid.UUID, msg *ws.Request) interface{} {
	payload := ws.AnswerPayload{QuestionIndex: msg.QuestionIndex, SelectedIndex: msg.SelectedIndex}
	if fields := validator.Struct(&payload); fields != nil {
		return ws.ErrorResponse{
			Event:  ws.EventError,
			Code:   string(response.ErrValidation),
			Error:  response.GetMessage(response.ErrValidation),
			Fields: fields,
		}
	}
	err := h.mockTestService.RecordAnswer(c.Request.Context(), userID, sessionID, *payload.QuestionIndex, *payload.SelectedIndex)
	if err != nil {
		return h.errorEvent(h.log, err)
	}
	return ws.SavedResponse{Event: ws.EventSaved, QuestionIndex: *payload.QuestionIndex, SelectedIndex: *payload.SelectedIndex}
}

func (h *WSHandler) errorEvent(log zerolog.Logger, err error) ws.ErrorResponse {
	status, code := classify(err)
	msg := response.GetMessage(code)
	switch {
	case code == response.ErrValidation:
		msg = err.Error()
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Msg("Session action failed")
	}
	return ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: msg}
}
