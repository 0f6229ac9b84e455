package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"podscribe/internal/api"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/pipeline"
	"podscribe/internal/services"
)

// handleTranscribeStream runs a job and streams its progress as
// server-sent events. The response stays open for the life of the job;
// client disconnect cancels the job and its child process.
func (s *Server) handleTranscribeStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	j, err := s.decodeJobRequest(r)
	if err != nil {
		s.writeError(w, errorStatus(err), err.Error())
		return
	}

	stream, ok := newEventStream(w)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "response writer does not support streaming")
		return
	}

	ctx := services.WithRequestID(r.Context(), uuid.NewString())
	runErr := s.pipe.Run(ctx, j, stream)
	if runErr != nil && !stream.sawTerminal() && ctx.Err() == nil {
		// Failures ahead of the first stage (ledger insert) produce no
		// in-band event; emit one so the stream still terminates.
		if emitErr := stream.Emit(ctx, pipeline.Event{Type: pipeline.EventError, Err: runErr.Error()}); emitErr != nil {
			s.log().Warn("emit fallback stream error",
				logging.String(logging.FieldJobID, j.ID),
				logging.Error(emitErr))
		}
	}
}

// handleTranscribe runs the same pipeline synchronously and answers with
// the finished transcript, or the terminal error as JSON.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	j, err := s.decodeJobRequest(r)
	if err != nil {
		s.writeError(w, errorStatus(err), err.Error())
		return
	}

	ctx := services.WithRequestID(r.Context(), uuid.NewString())
	var sink pipeline.Collector
	runErr := s.pipe.Run(ctx, j, &sink)

	result, errMessage, terminal := sink.Outcome()
	switch {
	case result != nil:
		s.writeJSON(w, http.StatusOK, result)
	case terminal:
		s.writeError(w, errorStatus(runErr), errMessage)
	case runErr != nil:
		s.writeError(w, errorStatus(runErr), runErr.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "job produced no outcome")
	}
}

// decodeJobRequest parses the submission body shared by both transcribe
// endpoints and builds the validated job.
func (s *Server) decodeJobRequest(r *http.Request) (*job.Job, error) {
	var req api.TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: decode request body: %v", services.ErrInvalidRequest, err)
	}
	return s.buildJob(req)
}

// buildJob applies configured defaults and validates the submission.
// Unknown engine or model-size values surface through job.New so the
// response names the rejected value.
func (s *Server) buildJob(req api.TranscribeRequest) (*job.Job, error) {
	engineValue := firstNonEmpty(req.Engine, req.Backend, s.cfg.Pipeline.DefaultEngine)
	modelValue := firstNonEmpty(req.ModelSize, s.cfg.Pipeline.DefaultModelSize)
	engine, _ := job.ParseEngine(engineValue)
	modelSize, _ := job.ParseModelSize(modelValue)
	source := job.Source{
		EpisodeURL:  strings.TrimSpace(req.SpotifyURL),
		UploadToken: strings.TrimSpace(req.FilePath),
	}
	return job.New(source, engine, modelSize)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
