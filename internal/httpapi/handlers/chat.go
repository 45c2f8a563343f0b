package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docchat/docchat/internal/chat"
)

type sendReq struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

func (h *Handler) SendChat(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = chat.DefaultSession
	}

	reply, err := h.Chat.Send(c.Request.Context(), req.SessionID, req.Model, req.Message)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": reply})
}

func (h *Handler) StreamChat(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		fail(c, http.StatusBadRequest, "message is required")
		return
	}
	sessionID := c.DefaultQuery("session_id", chat.DefaultSession)
	model := c.Query("model")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprint(c.Writer, "event: done\ndata: \n\n")
		return
	}

	writeData := func(payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	// The channel is drained to completion so the producer goroutine always
	// gets to deliver its terminal event.
	for ev := range h.Chat.SendStream(c.Request.Context(), sessionID, model, message) {
		switch {
		case ev.Done:
			fmt.Fprint(c.Writer, "event: done\ndata: \n\n")
			flusher.Flush()
		case ev.Err != nil:
			writeData(gin.H{"error": ev.Err.Error()})
		default:
			writeData(gin.H{"content": ev.Content})
		}
	}
}

type historyItem struct {
	ID        uint64 `json:"id"`
	Message   string `json:"message"`
	IsUser    bool   `json:"is_user"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) ChatHistory(c *gin.Context) {
	sessionID := c.DefaultQuery("session_id", chat.DefaultSession)

	turns, err := h.Chat.History(c.Request.Context(), sessionID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	items := make([]historyItem, 0, len(turns))
	for _, t := range turns {
		items = append(items, historyItem{
			ID:        t.ID,
			Message:   t.Message,
			IsUser:    t.IsUser,
			Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) ChatSessions(c *gin.Context) {
	sessions, err := h.Chat.Sessions(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []chat.SessionSummary{}
	}
	c.JSON(http.StatusOK, sessions)
}
