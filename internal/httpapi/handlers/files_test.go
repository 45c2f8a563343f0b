package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docchat/docchat/internal/files"
	"github.com/docchat/docchat/internal/ingest"
)

type countingIndexer struct {
	calls int
}

func (f *countingIndexer) Process(ctx context.Context, path string) (int, error) {
	f.calls++
	return 2, nil
}

func newFilesRouter(t *testing.T, idx files.Indexer) (*gin.Engine, *files.Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&files.File{}, &ingest.Job{}))

	repo := files.NewRepo(gdb)
	svc := files.NewService(repo, ingest.NewJobRepo(gdb), idx, nil, t.TempDir(), nil)
	h := NewHandler(nil, svc, nil)

	r := gin.New()
	r.POST("/files/upload", h.UploadFile)
	r.GET("/files/list", h.ListFiles)
	r.POST("/files/reindex", h.ReindexFiles)
	r.GET("/files/jobs/:job_id", h.GetIngestJob)
	return r, repo
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadTxt(t *testing.T) {
	idx := &countingIndexer{}
	r, repo := newFilesRouter(t, idx)

	body, ctype := multipartBody(t, "notes.txt", "some text")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "notes.txt", resp["filename"])
	assert.Contains(t, resp, "upload_time")
	assert.NotContains(t, resp, "filepath", "stored path must not leak")

	assert.Equal(t, 1, idx.calls)
	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUploadRejectsExtension(t *testing.T) {
	idx := &countingIndexer{}
	r, repo := newFilesRouter(t, idx)

	body, ctype := multipartBody(t, "malware.exe", "nope")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")

	assert.Zero(t, idx.calls, "rejected upload must not be indexed")
	rows, _ := repo.List(context.Background())
	assert.Empty(t, rows, "rejected upload must not create rows")
}

func TestUploadMissingFile(t *testing.T) {
	r, _ := newFilesRouter(t, &countingIndexer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/files/upload", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFilesNewestFirst(t *testing.T) {
	r, repo := newFilesRouter(t, &countingIndexer{})
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &files.File{Filename: "first.txt", Filepath: "/x/first.txt"}))
	require.NoError(t, repo.Create(ctx, &files.File{Filename: "second.pdf", Filepath: "/x/second.pdf"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/files/list", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "second.pdf", items[0]["filename"])
}

func TestReindexWithoutQueue(t *testing.T) {
	r, _ := newFilesRouter(t, &countingIndexer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/files/reindex", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetIngestJobNotFound(t *testing.T) {
	r, _ := newFilesRouter(t, &countingIndexer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/files/jobs/01HZXYZABCDEFGHJKMNPQRSTVW", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
