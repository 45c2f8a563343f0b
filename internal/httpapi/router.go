package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/httpapi/handlers"
	"github.com/docchat/docchat/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "method not allowed"})
	})

	r.GET("/ping", h.Ping)

	r.POST("/chat/send", h.SendChat)
	r.GET("/chat/stream", h.StreamChat)
	r.GET("/chat/history", h.ChatHistory)
	r.GET("/chat/sessions", h.ChatSessions)

	r.POST("/files/upload", h.UploadFile)
	r.GET("/files/list", h.ListFiles)
	r.POST("/files/reindex", h.ReindexFiles)
	r.GET("/files/jobs/:job_id", h.GetIngestJob)

	return r
}
