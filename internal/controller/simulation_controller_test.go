package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) startSimulation(t *testing.T, token string) model.SimulationSession {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/simulations", token, map[string]string{"scenario": "billing_complaint"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[model.SimulationSession](t, env.Data)
}

func TestSimulationFlow_MessageAndComplete(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "agent", model.Learner)
	session := s.startSimulation(t, token)
	assert.Equal(t, "angry", session.Personality)

	code, env := s.do(t, http.MethodPost, fmt.Sprintf("/api/simulations/%d/messages", session.ID), token, map[string]string{
		"content": "Es tut mir leid, dass Sie Ärger mit der Rechnung haben. Ich prüfe das sofort für Sie.",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	turn := decode[service.Turn](t, env.Data)
	assert.Equal(t, model.SpeakerAgent, turn.Agent.Speaker)
	assert.NotEmpty(t, turn.Customer.Content)

	code, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/simulations/%d/complete", session.ID), token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	result := decode[service.SessionResult](t, env.Data)
	assert.Equal(t, model.SimulationCompleted, result.Session.Status)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/simulations/%d", session.ID), token, nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[model.SimulationSession](t, env.Data)
	assert.Len(t, got.Steps, 3)
}

func TestSimulation_ForeignSessionForbidden(t *testing.T) {
	s := newTestServer(t)
	_, owner := s.createUser(t, "owner", model.Learner)
	_, other := s.createUser(t, "other", model.Learner)
	session := s.startSimulation(t, owner)

	code, env := s.do(t, http.MethodGet, fmt.Sprintf("/api/simulations/%d", session.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, util.KindPermission, env.Error)
}

func TestSimulation_UnknownScenario(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "agent", model.Learner)

	code, env := s.do(t, http.MethodPost, "/api/simulations", token, map[string]string{"scenario": "alien_invasion"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.KindValidation, env.Error)
}

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialLive(t *testing.T, srv *httptest.Server, sessionID uint, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/simulations/%d/ws?token=%s", sessionID, token)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestSimulationLive_TurnOverWebSocket(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "agent", model.Learner)
	session := s.startSimulation(t, token)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn := dialLive(t, srv, session.ID, token)
	assert.Equal(t, service.WSTypeReady, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("Ich verstehe Ihren Ärger und kümmere mich jetzt darum.")))
	frame := readFrame(t, conn)
	require.Equal(t, service.WSTypeTurn, frame.Type, string(frame.Data))

	var turn service.Turn
	require.NoError(t, json.Unmarshal(frame.Data, &turn))
	assert.Equal(t, 2, turn.Agent.StepOrder)

	// 空消息返回 error 帧，连接保持
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("   ")))
	assert.Equal(t, service.WSTypeError, readFrame(t, conn).Type)
}

func TestSimulationLive_ClosesWhenBudgetExpires(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "agent", model.Learner)
	session := s.startSimulation(t, token)

	// 只剩 300ms 的时间预算
	startedAt := time.Now().Add(-15*time.Minute + 300*time.Millisecond)
	require.NoError(t, s.db.Model(&model.SimulationSession{}).Where("id = ?", session.ID).Update("started_at", startedAt).Error)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn := dialLive(t, srv, session.ID, token)
	assert.Equal(t, service.WSTypeReady, readFrame(t, conn).Type)
	assert.Equal(t, service.WSTypeExpired, readFrame(t, conn).Type)

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}

func TestSimulationLive_RejectsFinishedSession(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "agent", model.Learner)
	session := s.startSimulation(t, token)
	require.NoError(t, s.db.Model(&model.SimulationSession{}).Where("id = ?", session.ID).
		Update("status", model.SimulationAbandoned).Error)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/simulations/%d/ws?token=%s", session.ID, token)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
