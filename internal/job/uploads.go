package job

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"podscribe/internal/logging"
	"podscribe/internal/textutil"
)

// Upload describes a stored upload a job can claim.
type Upload struct {
	// Path is the stored audio file; it doubles as the client-facing token.
	Path string
	// Dir is the upload's private directory, removed by the claiming job's
	// cleanup (or by Sweep when never claimed).
	Dir      string
	StoredAt time.Time
}

// Registry stores uploaded audio files and tracks their ownership. Each
// upload lives in its own directory under the registry root so the claiming
// job can remove it wholesale.
type Registry struct {
	root   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]Upload
}

// NewRegistry creates a Registry rooted at root.
func NewRegistry(root string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		root:    root,
		logger:  logger,
		entries: make(map[string]Upload),
	}
}

// Store saves an upload and returns its token. The token is the absolute
// stored path; clients pass it back verbatim when submitting a job.
func (r *Registry) Store(filename string, src io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = textutil.SanitizeFileName(base)
	if base == "" {
		base = "upload"
	}
	dir := filepath.Join(r.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	path := filepath.Join(dir, base)
	file, err := os.Create(path)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("close upload: %w", err)
	}

	r.mu.Lock()
	r.entries[path] = Upload{Path: path, Dir: dir, StoredAt: time.Now()}
	r.mu.Unlock()
	return path, nil
}

// Claim transfers ownership of an upload to the caller and returns it. A
// token the registry does not know (daemon restarted, or the client passed a
// plain path) yields ok=false; callers then fall back to treating the token
// as a bare path without taking ownership.
func (r *Registry) Claim(token string) (Upload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[token]
	if ok {
		delete(r.entries, token)
	}
	return entry, ok
}

// Pending returns the number of stored, unclaimed uploads.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes unclaimed upload directories older than maxAge, both from the
// registry and from disk (covering leftovers from previous runs). It returns
// the removed directories.
func (r *Registry) Sweep(maxAge time.Duration) []string {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	for token, entry := range r.entries {
		if entry.StoredAt.Before(cutoff) {
			delete(r.entries, token)
		}
	}
	live := make(map[string]struct{}, len(r.entries))
	for _, entry := range r.entries {
		live[entry.Dir] = struct{}{}
	}
	r.mu.Unlock()

	var removed []string
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("failed to scan upload directory",
				logging.String("path", r.root),
				logging.Error(err),
				logging.String(logging.FieldEventType, "upload_sweep_failed"),
			)
		}
		return nil
	}
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(r.root, entry.Name())
		if _, active := live[dirPath]; active {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			r.logger.Warn("failed to remove stale upload",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "upload_sweep_failed"),
				logging.String(logging.FieldErrorHint, "check upload_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		removed = append(removed, dirPath)
		r.logger.Info("removed stale upload",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "upload_sweep"),
		)
	}
	return removed
}
