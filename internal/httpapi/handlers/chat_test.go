package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docchat/docchat/internal/agent"
	"github.com/docchat/docchat/internal/ai"
	"github.com/docchat/docchat/internal/chat"
)

type scriptedAgent struct {
	reply string
	err   error
}

func (a *scriptedAgent) Respond(ctx context.Context, message string) (string, error) {
	return a.reply, a.err
}

func (a *scriptedAgent) Memory() []ai.Message { return nil }

type scriptedSource struct {
	agent *scriptedAgent
}

func (s *scriptedSource) GetOrCreate(ctx context.Context, sessionID, model string) (agent.Agent, error) {
	return s.agent, nil
}

func newChatRouter(t *testing.T, a *scriptedAgent) (*gin.Engine, *chat.Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&chat.Chat{}))

	repo := chat.NewRepo(gdb)
	svc := chat.NewService(repo, &scriptedSource{agent: a}, nil)
	h := NewHandler(svc, nil, nil)

	r := gin.New()
	r.POST("/chat/send", h.SendChat)
	r.GET("/chat/stream", h.StreamChat)
	r.GET("/chat/history", h.ChatHistory)
	r.GET("/chat/sessions", h.ChatSessions)
	return r, repo
}

func TestSendChatOK(t *testing.T) {
	r, repo := newChatRouter(t, &scriptedAgent{reply: "the reply"})

	body := `{"message": "hello", "session_id": "s1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "the reply", resp["content"])

	turns, err := repo.ListBySession(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "the reply", turns[1].Message)
}

func TestSendChatMissingMessage(t *testing.T) {
	r, repo := newChatRouter(t, &scriptedAgent{reply: "x"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(`{"session_id": "s1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")

	turns, _ := repo.ListBySession(context.Background(), "s1")
	assert.Empty(t, turns)
}

func TestSendChatAgentFailure(t *testing.T) {
	r, repo := newChatRouter(t, &scriptedAgent{err: errors.New("provider down")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(`{"message": "q", "session_id": "s1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["detail"], "provider down")

	turns, _ := repo.ListBySession(context.Background(), "s1")
	require.Len(t, turns, 2)
	assert.True(t, strings.HasPrefix(turns[1].Message, chat.ErrorPrefix))
}

type sseEvent struct {
	event string
	data  string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case strings.HasPrefix(line, "data:"):
				ev.data = strings.TrimPrefix(line, "data:")
			}
		}
		events = append(events, ev)
	}
	return events
}

func TestStreamChatFragmentsAndDone(t *testing.T) {
	reply := "abcdefghijklm" // 13 chars: three fragments
	r, _ := newChatRouter(t, &scriptedAgent{reply: reply})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/stream?message=q&session_id=s1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)

	var done int
	var b strings.Builder
	for _, ev := range events {
		if ev.event == "done" {
			done++
			continue
		}
		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(ev.data), &payload))
		require.NotContains(t, payload, "error")
		b.WriteString(payload["content"])
	}
	assert.Equal(t, 1, done, "exactly one terminal event")
	assert.Equal(t, "done", events[len(events)-1].event, "done must be last")
	assert.Equal(t, reply, b.String(), "fragments reassemble the reply")
}

func TestStreamChatErrorEvent(t *testing.T) {
	r, repo := newChatRouter(t, &scriptedAgent{err: errors.New("boom")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/stream?message=q&session_id=s1", nil)
	r.ServeHTTP(w, req)

	events := parseSSE(t, w.Body.String())
	require.Len(t, events, 2)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &payload))
	assert.Contains(t, payload["error"], "boom")
	assert.Equal(t, "done", events[1].event)

	turns, _ := repo.ListBySession(context.Background(), "s1")
	require.Len(t, turns, 2)
	assert.True(t, strings.HasPrefix(turns[1].Message, chat.ErrorPrefix))
}

func TestStreamChatMissingMessage(t *testing.T) {
	r, _ := newChatRouter(t, &scriptedAgent{reply: "x"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/stream", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHistoryShape(t *testing.T) {
	r, repo := newChatRouter(t, &scriptedAgent{reply: "a"})
	ctx := context.Background()

	require.NoError(t, repo.InsertTurn(ctx, &chat.Chat{SessionID: "s1", Message: "q", IsUser: true}))
	require.NoError(t, repo.InsertTurn(ctx, &chat.Chat{SessionID: "s1", Message: "a", IsUser: false}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/history?session_id=s1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	for _, key := range []string{"id", "message", "is_user", "timestamp"} {
		assert.Contains(t, items[0], key)
	}
	assert.Equal(t, "q", items[0]["message"])
	assert.Equal(t, true, items[0]["is_user"])
}

func TestChatSessionsEmpty(t *testing.T) {
	r, _ := newChatRouter(t, &scriptedAgent{reply: "a"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}
