package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, questions ...string) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.ServerConfig{ListenAddress: "127.0.0.1:0", Questions: questions, MaxQuestions: len(questions)}
	s := New(cfg, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Stop()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event protocol.EventType, payload any) {
	t.Helper()
	frame, err := protocol.Encode(event, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := protocol.Decode(frame)
	require.NoError(t, err)
	return env
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "Q1")
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "API is running", body["status"])
}

func TestScriptedInterview(t *testing.T) {
	_, ts := newTestServer(t, "Q1", "Q2")
	conn := dial(t, ts, "client_1")

	send(t, conn, protocol.EventStartInterview, protocol.StartInterviewPayload{JobDescription: "", Resume: "Go"})
	env := receive(t, conn)
	require.Equal(t, protocol.EventInterviewStarted, env.Event)
	var q protocol.QuestionPayload
	require.NoError(t, protocol.DecodePayload(env, &q))
	require.Equal(t, protocol.QuestionPayload{Message: "Interview started successfully", Question: "Q1", QuestionNumber: 1}, q)

	send(t, conn, protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{Answer: "first"})
	env = receive(t, conn)
	require.Equal(t, protocol.EventNextQuestion, env.Event)
	require.NoError(t, protocol.DecodePayload(env, &q))
	require.Equal(t, "Q2", q.Question)
	require.Equal(t, 2, q.QuestionNumber)

	send(t, conn, protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{Answer: "second"})
	env = receive(t, conn)
	require.Equal(t, protocol.EventInterviewComplete, env.Event)
	var c protocol.CompletePayload
	require.NoError(t, protocol.DecodePayload(env, &c))
	require.NotNil(t, c.Feedback)
	require.Contains(t, c.Feedback.DetailedFeedback, "Your answer (1 words): second")
	require.JSONEq(t, `2`, string(c.Feedback.Extra["questions_answered"]))

	// The session is gone once feedback has been sent.
	send(t, conn, protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{Answer: "third"})
	env = receive(t, conn)
	require.Equal(t, protocol.EventError, env.Event)
}

func TestAnswerWithoutSessionIsAnError(t *testing.T) {
	_, ts := newTestServer(t, "Q1")
	conn := dial(t, ts, "client_2")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`garbage`)))
	send(t, conn, protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{Answer: "hello"})

	env := receive(t, conn)
	require.Equal(t, protocol.EventError, env.Event)
	var e protocol.ErrorPayload
	require.NoError(t, protocol.DecodePayload(env, &e))
	require.Equal(t, "Invalid session or session expired", e.Message)
}

func TestDisconnectDiscardsInterview(t *testing.T) {
	s, ts := newTestServer(t, "Q1", "Q2")
	conn := dial(t, ts, "client_3")
	send(t, conn, protocol.EventStartInterview, protocol.StartInterviewPayload{})
	receive(t, conn)
	require.Equal(t, 1, s.ConnectedClients())

	require.True(t, s.DropClient("client_3"))
	require.Eventually(t, func() bool { return s.ConnectedClients() == 0 }, time.Second, 10*time.Millisecond)
	_, ok := s.interviews.Load("client_3")
	require.False(t, ok)

	conn = dial(t, ts, "client_3")
	send(t, conn, protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{Answer: "late"})
	require.Equal(t, protocol.EventError, receive(t, conn).Event)
}

func TestInterviewerPersonalizesFirstQuestion(t *testing.T) {
	iv := NewInterviewer("Senior Go Engineer\nRemote", "", []string{"Why Go?"}, 0)
	require.NotEmpty(t, iv.ID())
	question, number := iv.Start()
	require.Equal(t, 1, number)
	require.Equal(t, `Hello, I will be your interviewer for the "Senior Go Engineer" position. Why Go?`, question)

	_, _, done := iv.Answer("Because it is simple and fast to build services with.")
	require.True(t, done)
	require.Contains(t, iv.Feedback().DetailedFeedback, "1 questions answered")
}
