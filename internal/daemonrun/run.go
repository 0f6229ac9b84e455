package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"podscribe/internal/config"
	"podscribe/internal/daemon"
	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/notifications"
	"podscribe/internal/pipeline"
	"podscribe/internal/preflight"
	"podscribe/internal/server"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the podscribe daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("podscribe-%s.log", runID))

	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update podscribe.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "podscribe-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "podscribe.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open job ledger", logging.Error(err))
		return err
	}
	defer store.Close()

	// Jobs run on request goroutines; anything still active in the ledger
	// belongs to a previous process and will never resume.
	if failed, err := store.FailActive(signalCtx, "daemon restarted while job was active"); err != nil {
		logger.Warn("reset active jobs", logging.Error(err))
	} else if failed > 0 {
		logger.Info("orphaned jobs marked failed", logging.Int64("count", failed))
	}

	uploads := job.NewRegistry(cfg.Paths.UploadDir, logger)
	notifier := notifications.NewService(cfg)
	pipe := pipeline.New(cfg, store, uploads, logger,
		pipeline.WithNotifier(notifications.NewJobNotifier(notifier, logger)))

	apiServer, err := server.New(cfg, pipe, store, uploads, notifier, logger)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if apiServer == nil {
		logger.Warn("api server disabled", logging.String("reason", "no bind address configured"))
	}

	d, err := daemon.New(cfg, store, uploads, apiServer, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "stop the other podscribe instance or remove a stale lock"),
			logging.String(logging.FieldImpact, "daemon cannot accept transcription jobs"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("podscribe daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "podscribe.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("summarizer_configured", strings.TrimSpace(cfg.Summary.BaseURL) != ""),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	}
	for _, requirement := range preflight.ToolRequirements(cfg) {
		key := strings.ReplaceAll(requirement.Name, "-", "_")
		attrs = append(attrs,
			logging.Bool(key+"_available", binaryAvailable(requirement.Command)),
			logging.String(key+"_binary", requirement.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
