package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/docchat/docchat/internal/ingest"
)

func (h *Handler) UploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}

	src, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer src.Close()

	f, err := h.Files.Upload(c.Request.Context(), fh.Filename, src)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedType) {
			fail(c, http.StatusBadRequest, "only .txt and .pdf files are supported")
			return
		}
		h.Log.WithError(err).Error("upload failed")
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) ListFiles(c *gin.Context) {
	out, err := h.Files.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list files")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ReindexFiles(c *gin.Context) {
	jobs, err := h.Files.Reindex(c.Request.Context())
	if err != nil {
		h.Log.WithError(err).Error("reindex failed")
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	c.JSON(http.StatusAccepted, gin.H{"jobs": ids})
}

func (h *Handler) GetIngestJob(c *gin.Context) {
	id := c.Param("job_id")
	if id == "" {
		fail(c, http.StatusBadRequest, "job_id is required")
		return
	}

	job, err := h.Files.JobStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "job not found")
			return
		}
		fail(c, http.StatusInternalServerError, "failed to load job")
		return
	}
	c.JSON(http.StatusOK, job)
}
