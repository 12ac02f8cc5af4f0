package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"StudyMind/pkg/logger"
)

func formFileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestReadUploadEnforcesLimit(t *testing.T) {
	h := NewHandler(nil, 16, logger.New("test"))

	data, err := h.readUpload(formFileHeader(t, "small.pdf", bytes.Repeat([]byte("a"), 16)))
	if err != nil {
		t.Fatalf("upload at the limit must pass: %v", err)
	}
	if len(data) != 16 {
		t.Errorf("len(data) = %d, want 16", len(data))
	}

	if _, err := h.readUpload(formFileHeader(t, "big.pdf", bytes.Repeat([]byte("a"), 17))); err == nil {
		t.Fatal("upload over the limit must be rejected, not truncated")
	}
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, 8, logger.New("test"))
	r := gin.New()
	r.POST("/api/upload", h.Upload)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "big.pdf")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(bytes.Repeat([]byte("a"), 64))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "file too large") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
