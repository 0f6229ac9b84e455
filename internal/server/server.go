package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"podscribe/internal/api"
	"podscribe/internal/config"
	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/notifications"
	"podscribe/internal/pipeline"
	"podscribe/internal/services"
	"podscribe/internal/tools"
)

// jobMutator is the ledger slice behind the destructive job endpoints.
type jobMutator interface {
	GetByID(ctx context.Context, id string) (*history.Record, error)
	Remove(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
}

// Server exposes the daemon HTTP API: job submission with streamed
// progress, uploads, metadata lookup, the job ledger, and health.
type Server struct {
	bind     string
	cfg      *config.Config
	logger   *slog.Logger
	pipe     *pipeline.Pipeline
	jobs     *api.JobService
	ledger   jobMutator
	uploads  *job.Registry
	notifier notifications.Service
	runner   tools.Runner

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// Option customizes server construction.
type Option func(*Server)

// WithRunner substitutes the process runner behind the metadata endpoint.
func WithRunner(runner tools.Runner) Option {
	return func(s *Server) {
		s.runner = runner
	}
}

// New builds the API server. It returns (nil, nil) when no bind address is
// configured.
func New(cfg *config.Config, pipe *pipeline.Pipeline, store *history.Store, uploads *job.Registry, notifier notifications.Service, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}
	if pipe == nil {
		return nil, errors.New("pipeline is required")
	}
	if store == nil {
		return nil, errors.New("history store is required")
	}
	srv := &Server{
		bind:     bind,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "api"),
		pipe:     pipe,
		jobs:     api.NewJobService(store),
		ledger:   store,
		uploads:  uploads,
		notifier: notifier,
		runner:   tools.NewRunner(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv, nil
}

// Handler returns the route table. Exposed so tests can drive the server
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/transcribe-stream", s.handleTranscribeStream)
	mux.HandleFunc("/api/transcribe", s.handleTranscribe)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/metadata", s.handleMetadata)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/api/test-notify", s.handleTestNotify)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// Start binds the listen socket synchronously so callers observe address
// errors immediately, then serves until ctx is cancelled or Stop is called.
// Request contexts descend from ctx, so cancelling it also cancels running
// jobs.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.bind, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No ReadTimeout or WriteTimeout: uploads stream request bodies
		// for minutes and the event stream holds responses open for the
		// life of a job.
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.listener = listener
	s.server = httpServer
	s.mu.Unlock()

	s.log().Info("api server listening", logging.String("bind", listener.Addr().String()))

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server terminated", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	httpServer := s.server
	listener := s.listener
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if httpServer == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log().Warn("api server shutdown incomplete", logging.Error(err))
		_ = httpServer.Close()
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// Addr returns the bound listen address, or the configured bind before
// Start.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("encode api response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}

// errorStatus maps a classified job error onto an HTTP status.
func errorStatus(err error) int {
	switch services.Classify(err) {
	case services.KindInvalidRequest:
		return http.StatusBadRequest
	case services.KindMissingInput:
		return http.StatusNotFound
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	case services.KindStageTimeout, services.KindStageStalled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
