package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	ws "github.com/Aditya06pandey1368/LMS-Project/internal/websocket"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, srv *httptest.Server, sessionID, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/mocktests/" + sessionID + "/stream?user=" + user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func intPtr(v int) *int { return &v }

func TestSessionStreamActions(t *testing.T) {
	s := newTestServer(t)
	view := s.start(t, "u1", "go-101")
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn := dialStream(t, srv, view.ID.String(), "u1")

	var state ws.StateResponse
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, ws.EventState, state.Event)
	require.NotNil(t, state.Session)
	assert.Equal(t, view.ID, state.Session.ID)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionPing}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAnswer, QuestionIndex: intPtr(3), SelectedIndex: intPtr(2)}))
	var saved ws.SavedResponse
	require.NoError(t, conn.ReadJSON(&saved))
	assert.Equal(t, ws.SavedResponse{Event: ws.EventSaved, QuestionIndex: 3, SelectedIndex: 2}, saved)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAnswer, QuestionIndex: intPtr(12), SelectedIndex: intPtr(0)}))
	var bad ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, string(response.ErrValidation), bad.Code)
	assert.Contains(t, bad.Fields, "questionIndex")

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAnswer, QuestionIndex: intPtr(1)}))
	var missing ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&missing))
	assert.Equal(t, string(response.ErrValidation), missing.Code)
	assert.Contains(t, missing.Fields, "selectedIndex")
	assert.NotContains(t, missing.Fields, "questionIndex")

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionSubmit}))
	var result ws.ResultResponse
	require.NoError(t, conn.ReadJSON(&result))
	assert.Equal(t, ws.EventResult, result.Event)
	require.NotNil(t, result.Result)
	assert.Equal(t, 10, result.Result.Score)
	assert.Equal(t, model.MockTestStatusSubmitted, result.Result.Status)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAnswer, QuestionIndex: intPtr(0), SelectedIndex: intPtr(0)}))
	var closed ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&closed))
	assert.Equal(t, string(response.ErrSessionNotActive), closed.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`!!`)))
	var malformed ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&malformed))
	assert.Equal(t, string(response.ErrInvalidPayload), malformed.Code)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: "dance"}))
	var unknown ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&unknown))
	assert.Contains(t, unknown.Error, "unknown action")
}

func TestSessionStreamRejectsForeignSession(t *testing.T) {
	s := newTestServer(t)
	view := s.start(t, "u1", "go-101")
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/mocktests/" + view.ID.String() + "/stream?user=u2"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
