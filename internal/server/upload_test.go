package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"podscribe/internal/api"
)

func multipartBody(t *testing.T, field, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func postUpload(fx *fixture, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	fx.server.handleUpload(recorder, req)
	return recorder
}

func TestUploadStoresFile(t *testing.T) {
	fx := newFixture(t)
	body, contentType := multipartBody(t, "file", "episode.mp3", "audio/mpeg", []byte("audio-bytes"))

	recorder := postUpload(fx, body, contentType)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var out api.UploadResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.FilePath == "" || !strings.HasPrefix(out.FilePath, fx.cfg.Paths.UploadDir) {
		t.Fatalf("expected token under upload dir, got %q", out.FilePath)
	}
	stored, err := os.ReadFile(out.FilePath)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(stored) != "audio-bytes" {
		t.Fatalf("unexpected stored content %q", stored)
	}
	if fx.uploads.Pending() != 1 {
		t.Fatalf("expected one registered upload, got %d", fx.uploads.Pending())
	}
}

func TestUploadAcceptsByExtensionAlone(t *testing.T) {
	fx := newFixture(t)
	body, contentType := multipartBody(t, "file", "episode.m4a", "application/octet-stream", []byte("a"))
	if recorder := postUpload(fx, body, contentType); recorder.Code != http.StatusOK {
		t.Fatalf("expected extension fallback to accept, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestUploadAcceptsByMediaTypeAlone(t *testing.T) {
	fx := newFixture(t)
	body, contentType := multipartBody(t, "file", "episode.audio", "audio/mpeg; charset=binary", []byte("a"))
	if recorder := postUpload(fx, body, contentType); recorder.Code != http.StatusOK {
		t.Fatalf("expected media type to accept, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	fx := newFixture(t)
	body, contentType := multipartBody(t, "file", "episode.wav", "audio/wav", []byte("a"))

	recorder := postUpload(fx, body, contentType)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "unsupported file type") {
		t.Fatalf("unexpected error message %q", msg)
	}
	if fx.uploads.Pending() != 0 {
		t.Fatalf("expected nothing stored, got %d pending", fx.uploads.Pending())
	}
}

func TestUploadEnforcesSizeCap(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Upload.MaxMiB = 1
	body, contentType := multipartBody(t, "file", "episode.mp3", "audio/mpeg", bytes.Repeat([]byte("a"), 2<<20))

	recorder := postUpload(fx, body, contentType)
	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "exceeds the 1 MiB limit") {
		t.Fatalf("unexpected error message %q", msg)
	}
	if fx.uploads.Pending() != 0 {
		t.Fatalf("expected partial upload discarded, got %d pending", fx.uploads.Pending())
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	fx := newFixture(t)
	body, contentType := multipartBody(t, "attachment", "episode.mp3", "audio/mpeg", []byte("a"))

	recorder := postUpload(fx, body, contentType)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, `multipart field "file" is required`) {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestUploadRequiresMultipartForm(t *testing.T) {
	fx := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	fx.server.handleUpload(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "multipart form required") {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestUploadWithoutRegistry(t *testing.T) {
	fx := newFixture(t)
	fx.server.uploads = nil
	body, contentType := multipartBody(t, "file", "episode.mp3", "audio/mpeg", []byte("a"))

	recorder := postUpload(fx, body, contentType)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}
}
