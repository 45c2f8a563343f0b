package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/chat"
	"github.com/docchat/docchat/internal/files"
)

type Handler struct {
	Chat  *chat.Service
	Files *files.Service
	Log   *logrus.Logger
}

func NewHandler(chatSvc *chat.Service, filesSvc *files.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Chat: chatSvc, Files: filesSvc, Log: log}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// fail writes the shared error shape used by every endpoint.
func fail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}
