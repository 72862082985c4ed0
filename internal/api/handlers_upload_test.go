// handlers_upload_test.go - Drawing upload handler tests
package api

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/upload"
)

const testDrawingSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="200"><rect width="400" height="200" fill="none"/></svg>`

// uploadTestDrawing pushes content through the base64 upload endpoint.
func uploadTestDrawing(t *testing.T, e *echo.Echo, projectID, name, content string) *models.FileInfo {
	t.Helper()
	body := fmt.Sprintf(`{"projectId":%q,"name":%q,"data":%q}`,
		projectID, name, base64.StdEncoding.EncodeToString([]byte(content)))
	rec := doRequest(e, http.MethodPost, "/api/files/upload", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var info models.FileInfo
	decodeJSON(t, rec, &info)
	return &info
}

func pushChunk(t *testing.T, e *echo.Echo, uploadID string, idx int, data []byte, total int) {
	t.Helper()
	body := fmt.Sprintf(`{"uploadId":%q,"chunkIndex":%d,"data":%q,"totalChunks":%d}`,
		uploadID, idx, base64.StdEncoding.EncodeToString(data), total)
	rec := doRequest(e, http.MethodPost, "/api/files/upload/chunk", body)
	require.Equal(t, http.StatusAccepted, rec.Code)
}

// waitForUploadJob polls the job endpoint until processing leaves the
// in-flight states.
func waitForUploadJob(t *testing.T, e *echo.Echo, jobID string) upload.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doRequest(e, http.MethodGet, "/api/files/jobs/"+jobID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var job upload.Job
		decodeJSON(t, rec, &job)
		if job.Status == upload.StatusComplete || job.Status == upload.StatusError {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("upload job %s did not finish", jobID)
	return upload.Job{}
}

func TestUploadFileAndFetchContent(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	info := uploadTestDrawing(t, e, p.ID, "layout.svg", testDrawingSVG)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, p.ID, info.ProjectID)
	assert.Equal(t, int64(len(testDrawingSVG)), info.Size)
	assert.Equal(t, "uploaded", info.Status)

	// Metadata lookup
	rec := doRequest(e, http.MethodGet, "/api/files/"+info.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"layout.svg"`)

	// Raw bytes round-trip for the canvas background layer
	rec = doRequest(e, http.MethodGet, "/api/files/"+info.ID+"/content", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testDrawingSVG, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/api/files/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFileValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodPost, "/api/files/upload", `{"name":"x.svg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = doRequest(e, http.MethodPost, "/api/files/upload", `{"name":"x.svg","data":"not-base64!!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", errorCode(t, rec))
}

func TestChunkedUploadJob(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	raw := []byte(testDrawingSVG)
	half := len(raw) / 2
	pushChunk(t, e, "up-1", 0, raw[:half], 2)
	pushChunk(t, e, "up-1", 1, raw[half:], 2)

	body := fmt.Sprintf(`{"uploadId":"up-1","projectId":%q,"name":"chunked.svg","totalChunks":2,"originalSize":%d,"encoding":"binary"}`,
		p.ID, len(raw))
	rec := doRequest(e, http.MethodPost, "/api/files/upload/complete", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started struct {
		JobID  string `json:"jobId"`
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &started)
	require.NotEmpty(t, started.JobID)

	job := waitForUploadJob(t, e, started.JobID)
	require.Equal(t, upload.StatusComplete, job.Status, "job error: %s", job.Error)
	assert.Equal(t, float64(100), job.Progress)
	require.NotNil(t, job.FileInfo)
	assert.Equal(t, "chunked.svg", job.FileInfo.Name)
	assert.Equal(t, int64(len(raw)), job.FileInfo.Size)
	assert.Equal(t, "image/svg+xml", job.FileInfo.ContentType)
	assert.Equal(t, "processed", job.FileInfo.Status)

	// Assembled bytes are fetchable
	rec = doRequest(e, http.MethodGet, "/api/files/"+job.FileInfo.ID+"/content", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testDrawingSVG, rec.Body.String())
}

func TestChunkedUploadGzipDecompression(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testDrawingSVG))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	pushChunk(t, e, "up-gz", 0, buf.Bytes(), 1)

	body := fmt.Sprintf(`{"uploadId":"up-gz","projectId":%q,"name":"packed.svg","totalChunks":1,"originalSize":%d,"compressedSize":%d,"encoding":"gzip"}`,
		p.ID, len(testDrawingSVG), buf.Len())
	rec := doRequest(e, http.MethodPost, "/api/files/upload/complete", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started struct {
		JobID string `json:"jobId"`
	}
	decodeJSON(t, rec, &started)

	job := waitForUploadJob(t, e, started.JobID)
	require.Equal(t, upload.StatusComplete, job.Status, "job error: %s", job.Error)
	require.NotNil(t, job.FileInfo)
	assert.Equal(t, int64(len(testDrawingSVG)), job.FileInfo.Size)

	rec = doRequest(e, http.MethodGet, "/api/files/"+job.FileInfo.ID+"/content", "")
	assert.Equal(t, testDrawingSVG, rec.Body.String())
}

func TestUploadJobStream(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	pushChunk(t, e, "up-sse", 0, []byte(testDrawingSVG), 1)
	body := fmt.Sprintf(`{"uploadId":"up-sse","projectId":%q,"name":"sse.svg","totalChunks":1,"originalSize":%d,"encoding":"binary"}`,
		p.ID, len(testDrawingSVG))
	rec := doRequest(e, http.MethodPost, "/api/files/upload/complete", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started struct {
		JobID string `json:"jobId"`
	}
	decodeJSON(t, rec, &started)
	waitForUploadJob(t, e, started.JobID)

	// A finished job streams one final snapshot and closes
	rec = doRequest(e, http.MethodGet, "/api/files/jobs/"+started.JobID+"/stream", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data: ")
	assert.Contains(t, rec.Body.String(), `"status":"complete"`)

	// Unknown jobs answer in-band on the stream, 404 on the status endpoint
	rec = doRequest(e, http.MethodGet, "/api/files/jobs/ghost/stream", "")
	assert.Contains(t, rec.Body.String(), "job not found")
	rec = doRequest(e, http.MethodGet, "/api/files/jobs/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadBinary(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.svg")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testDrawingSVG))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("projectId", p.ID))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload/binary", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var info models.FileInfo
	decodeJSON(t, rec, &info)
	assert.Equal(t, "scan.svg", info.Name)
	assert.Equal(t, p.ID, info.ProjectID)
	assert.Equal(t, int64(len(testDrawingSVG)), info.Size)
}

func TestRecentFilesSkipRuleUploads(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	uploadTestDrawing(t, e, p.ID, "floor.svg", testDrawingSVG)
	uploadTestDrawing(t, e, p.ID, "custom-rules.yaml", "patterns: []")

	rec := doRequest(e, http.MethodGet, "/api/files/recent?projectId="+p.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var files []*models.FileInfo
	decodeJSON(t, rec, &files)
	require.Len(t, files, 1)
	assert.Equal(t, "floor.svg", files[0].Name)
}

func TestRenameFile(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")
	info := uploadTestDrawing(t, e, p.ID, "old.svg", testDrawingSVG)

	rec := doRequest(e, http.MethodPut, "/api/files/"+info.ID, `{"name":"renamed.svg"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	var renamed models.FileInfo
	decodeJSON(t, rec, &renamed)
	assert.Equal(t, "renamed.svg", renamed.Name)

	rec = doRequest(e, http.MethodPut, "/api/files/"+info.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodPut, "/api/files/ghost", `{"name":"x.svg"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFile(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")
	info := uploadTestDrawing(t, e, p.ID, "floor.svg", testDrawingSVG)

	rec := doRequest(e, http.MethodDelete, "/api/files/"+info.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/files/"+info.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFileDisabled(t *testing.T) {
	deps := newTestDeps(t)
	deps.AllowFileDeletion = false
	e := newServerForDeps(deps)

	p := createTestProject(t, e, "Line A")
	info := uploadTestDrawing(t, e, p.ID, "floor.svg", testDrawingSVG)

	rec := doRequest(e, http.MethodDelete, "/api/files/"+info.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}
