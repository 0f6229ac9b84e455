package job

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"podscribe/internal/logging"
)

// Workspace is a job's exclusively owned scratch directory. The directory is
// created on first use, not at construction, so jobs that fail validation
// never touch the filesystem. Cleanup removes it exactly once no matter how
// many termination paths race to call it.
type Workspace struct {
	root   string
	jobID  string
	logger *slog.Logger

	mu      sync.Mutex
	dir     string
	adopted []string
	cleaned bool
}

// NewWorkspace prepares a handle rooted under root for the given job. Nothing
// is created until Dir is called.
func NewWorkspace(root, jobID string, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Workspace{root: root, jobID: jobID, logger: logger}
}

// Dir returns the job's scratch directory, creating it on first call.
func (w *Workspace) Dir() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cleaned {
		return "", fmt.Errorf("workspace for job %s already cleaned up", w.jobID)
	}
	if w.dir != "" {
		return w.dir, nil
	}
	dir := filepath.Join(w.root, "job-"+w.jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	w.dir = dir
	return dir, nil
}

// Created reports whether the scratch directory exists on disk.
func (w *Workspace) Created() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir != ""
}

// Adopt registers an additional directory the job now owns; it is removed
// alongside the scratch directory at cleanup. Used when a job claims an
// uploaded file.
func (w *Workspace) Adopt(dir string) {
	if dir == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cleaned {
		return
	}
	w.adopted = append(w.adopted, dir)
}

// Cleanup removes the scratch directory and any adopted directories. It runs
// at most once; later calls are no-ops. Removal failures are logged and
// swallowed: cleanup must never mask the job's own outcome.
func (w *Workspace) Cleanup() {
	w.mu.Lock()
	if w.cleaned {
		w.mu.Unlock()
		return
	}
	w.cleaned = true
	targets := make([]string, 0, len(w.adopted)+1)
	if w.dir != "" {
		targets = append(targets, w.dir)
	}
	targets = append(targets, w.adopted...)
	w.mu.Unlock()

	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			w.logger.Warn("failed to remove job directory",
				logging.String("path", target),
				logging.String(logging.FieldJobID, w.jobID),
				logging.Error(err),
				logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		w.logger.Debug("removed job directory",
			logging.String("path", target),
			logging.String(logging.FieldJobID, w.jobID),
			logging.String(logging.FieldEventType, "workspace_cleanup"),
		)
	}
}
