package server

import (
	"fmt"
	"net/http"
	"strings"

	"podscribe/internal/api"
	"podscribe/internal/logging"
	"podscribe/internal/notifications"
	"podscribe/internal/preflight"
)

// handleHealthz reports liveness plus a dependency snapshot. The endpoint
// always answers 200; a failing check degrades the status field rather
// than the response.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	checks := preflight.RunAll(r.Context(), s.cfg)
	if strings.TrimSpace(s.cfg.Summary.BaseURL) == "" {
		// RunAll probes the summarizer only when an endpoint is
		// configured; surface the extractive fallback mode otherwise.
		checks = append(checks, preflight.CheckSummarizerFromConfig(s.cfg))
	}
	checks = append(checks, preflight.CheckNotificationsFromConfig(s.cfg))
	dependencies := preflight.CheckSystemDeps(s.cfg)

	status := "ok"
	for _, check := range checks {
		if !check.Passed {
			status = "degraded"
		}
	}
	for _, dependency := range dependencies {
		if !dependency.Available && !dependency.Optional {
			status = "degraded"
		}
	}

	counts, err := s.jobs.Counts(r.Context())
	if err != nil {
		s.log().Warn("ledger unavailable for health snapshot", logging.Error(err))
		status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:       status,
		Checks:       api.FromPreflight(checks),
		Dependencies: api.FromDependencies(dependencies),
		Jobs:         counts,
	})
}

// handleTestNotify publishes a test notification through the configured
// channel.
func (s *Server) handleTestNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.notifier == nil || !s.notifier.Enabled() {
		s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: false, Detail: "ntfy topic not configured"})
		return
	}
	if err := s.notifier.Publish(r.Context(), notifications.EventTest, nil); err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to send notification: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: true, Detail: "test notification sent"})
}
