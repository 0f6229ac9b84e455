package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"podscribe/internal/api"
	"podscribe/internal/logging"
)

// Upload acceptance: either the declared media type or the file extension
// must identify MP3, MP4, or M4A audio.
var (
	uploadMIMETypes = map[string]struct{}{
		"audio/mpeg":  {},
		"audio/mp3":   {},
		"audio/mp4":   {},
		"video/mp4":   {},
		"audio/x-m4a": {},
		"audio/m4a":   {},
	}
	uploadExtensions = map[string]struct{}{
		".mp3": {},
		".mp4": {},
		".m4a": {},
	}
)

// handleUpload stores a multipart audio file and returns the token a
// transcribe request presents as its file_path. The body streams to disk,
// never buffered whole.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.uploads == nil {
		s.writeError(w, http.StatusServiceUnavailable, "upload storage not available")
		return
	}

	maxBytes := int64(s.cfg.Upload.MaxMiB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("multipart form required: %v", err))
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.writeUploadError(w, http.StatusBadRequest, "read upload", err)
			return
		}
		if part.FormName() != "file" {
			continue
		}

		filename := filepath.Base(part.FileName())
		if !allowedUpload(part.Header.Get("Content-Type"), filename) {
			s.writeError(w, http.StatusBadRequest, "unsupported file type: upload an MP3, MP4, or M4A file")
			return
		}
		token, err := s.uploads.Store(filename, part)
		if err != nil {
			s.writeUploadError(w, http.StatusInternalServerError, "store upload", err)
			return
		}
		s.log().Info("upload stored",
			logging.String("filename", filename),
			logging.String("token", token))
		s.writeJSON(w, http.StatusOK, api.UploadResponse{FilePath: token})
		return
	}
	s.writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
}

// writeUploadError distinguishes the size cap from other failures.
func (s *Server) writeUploadError(w http.ResponseWriter, fallback int, operation string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds the %d MiB limit", s.cfg.Upload.MaxMiB))
		return
	}
	s.writeError(w, fallback, fmt.Sprintf("%s: %v", operation, err))
}

func allowedUpload(contentType, filename string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, ok := uploadMIMETypes[strings.ToLower(mediaType)]; ok {
			return true
		}
	}
	_, ok := uploadExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}
