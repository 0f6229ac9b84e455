package server

import (
	"fmt"
	"net/http"
	"strings"

	"podscribe/internal/api"
	"podscribe/internal/job"
)

// handleJobs serves the ledger listing and scoped clears.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listJobs(w, r)
	case http.MethodDelete:
		s.clearJobs(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	var filters []job.Status
	for _, raw := range r.URL.Query()["status"] {
		status, ok := job.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		filters = append(filters, status)
	}
	jobs, err := s.jobs.List(r.Context(), filters...)
	if err != nil {
		s.writeError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

// clearJobs deletes ledger records by scope. Clearing everything is refused
// while jobs are running; completed and failed scopes cannot touch them.
func (s *Server) clearJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		cleared int64
		err     error
	)
	scope := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope")))
	switch scope {
	case "completed":
		cleared, err = s.ledger.ClearCompleted(ctx)
	case "failed":
		cleared, err = s.ledger.ClearFailed(ctx)
	case "", "all":
		counts, countErr := s.jobs.Counts(ctx)
		if countErr != nil {
			s.writeError(w, errorStatus(countErr), countErr.Error())
			return
		}
		if counts.Active > 0 {
			s.writeError(w, http.StatusConflict, fmt.Sprintf("%d jobs are active; wait or clear by scope", counts.Active))
			return
		}
		cleared, err = s.ledger.Clear(ctx)
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scope %q", scope))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Cleared: cleared})
}

// handleJob serves one ledger record by ID.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.describeJob(w, r, id)
	case http.MethodDelete:
		s.removeJob(w, r, id)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) describeJob(w http.ResponseWriter, r *http.Request, id string) {
	found, ok, err := s.jobs.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, errorStatus(err), err.Error())
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: found})
}

func (s *Server) removeJob(w http.ResponseWriter, r *http.Request, id string) {
	record, err := s.ledger.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", id))
		return
	}
	if record.Status.Active() {
		s.writeError(w, http.StatusConflict, fmt.Sprintf("job %s is %s; wait for it to finish", id, record.Status))
		return
	}
	removed, err := s.ledger.Remove(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.RemoveResponse{Removed: removed})
}
