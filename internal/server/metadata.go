package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"podscribe/internal/api"
	"podscribe/internal/services"
	"podscribe/internal/tools"
)

// handleMetadata resolves episode metadata without starting a job. It runs
// only the metadata tool, under the same absolute deadline the metadata
// stage uses.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	episodeURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if episodeURL == "" {
		s.writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	timeout := time.Duration(s.cfg.Pipeline.MetadataTimeout) * time.Second
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	meta, err := s.lookupMetadata(ctx, episodeURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = services.Wrap(services.ErrStageTimeout, "metadata", "", fmt.Sprintf("no completion within %s", timeout), nil)
		}
		s.writeError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// lookupMetadata invokes the metadata tool the way the metadata stage does
// and decodes its result channel. Diagnostic state is written by the
// runner's scan goroutines and read only after Run returns, which joins
// them first.
func (s *Server) lookupMetadata(ctx context.Context, episodeURL string) (*api.EpisodeMetadata, error) {
	toolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stdout []string
	var noise tools.NoiseBuffer
	toolErr := ""

	onStdout := func(line string) {
		stdout = append(stdout, line)
	}
	onStderr := func(line string) {
		diag, ok := tools.ParseDiagnostic(line)
		if !ok {
			noise.Add(line)
			return
		}
		if diag.Err != "" {
			toolErr = diag.Err
			cancel()
		}
	}

	argv := append(s.cfg.MetadataCommand(), episodeURL)
	runErr := s.runner.Run(toolCtx, tools.Command{Argv: argv}, onStdout, onStderr)
	cancel()

	if toolErr != "" {
		return nil, services.Wrap(services.ErrToolFailure, "metadata", "", toolErr, nil)
	}
	if runErr != nil {
		if recent := noise.Context(); recent != "" && errors.Is(runErr, services.ErrToolFailure) {
			return nil, fmt.Errorf("metadata: %w (recent output: %s)", runErr, recent)
		}
		return nil, fmt.Errorf("metadata: %w", runErr)
	}

	var meta api.EpisodeMetadata
	if err := tools.DecodeResult(strings.Join(stdout, "\n"), &meta); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return &meta, nil
}
