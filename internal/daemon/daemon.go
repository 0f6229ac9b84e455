package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"podscribe/internal/config"
	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/server"
)

const (
	// uploadSweepInterval paces the background sweep of the upload area.
	uploadSweepInterval = 6 * time.Hour
	// uploadMaxAge is how long an unclaimed upload survives before the
	// sweeper reclaims it.
	uploadMaxAge = 24 * time.Hour
)

// Daemon coordinates the background services and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *history.Store
	uploads *job.Registry
	api     *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	APIBind      string
	LockFilePath string
	LedgerPath   string
	Jobs         history.HealthSummary
}

// New constructs a daemon with initialized dependencies. The API server and
// upload registry may be nil; the daemon then only holds the lock and the
// ledger.
func New(cfg *config.Config, store *history.Store, uploads *job.Registry, api *server.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, history store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "podscribed.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		uploads:  uploads,
		api:      api,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the API server and the upload
// sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another podscribe daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.Start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start api server: %w", err)
		}
	}
	d.cancel = cancel
	if d.uploads != nil {
		go d.sweepUploads(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("podscribe daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("podscribe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		LedgerPath:   d.cfg.DatabasePath(),
	}
	if d.api != nil {
		status.APIBind = d.api.Addr()
	}
	if summary, err := d.store.Health(ctx); err == nil {
		status.Jobs = summary
	} else {
		d.logger.Warn("job ledger unavailable for status", logging.Error(err))
	}
	return status
}

// sweepUploads reclaims stale pending uploads for as long as the daemon
// runs. Uploads are one-shot tokens; anything unclaimed after a day is an
// abandoned submission.
func (d *Daemon) sweepUploads(ctx context.Context) {
	d.reportSwept(d.uploads.Sweep(uploadMaxAge))

	ticker := time.NewTicker(uploadSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.reportSwept(d.uploads.Sweep(uploadMaxAge))
		}
	}
}

func (d *Daemon) reportSwept(removed []string) {
	if len(removed) == 0 {
		return
	}
	d.logger.Info("stale uploads removed", logging.Int("count", len(removed)))
}
