package notifications

import (
	"context"
	"log/slog"

	"podscribe/internal/logging"
)

// JobNotifier adapts Service to the pipeline's terminal-outcome callbacks.
// Publish failures are logged, never surfaced: a missed push must not change
// job state.
type JobNotifier struct {
	service Service
	logger  *slog.Logger
}

// NewJobNotifier wires service behind the pipeline notifier seam.
func NewJobNotifier(service Service, logger *slog.Logger) *JobNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JobNotifier{service: service, logger: logger}
}

func (n *JobNotifier) JobComplete(ctx context.Context, title string) {
	if n == nil || n.service == nil {
		return
	}
	if err := n.service.Publish(ctx, EventJobCompleted, Payload{"title": title}); err != nil {
		n.logger.Debug("completion notification failed", logging.Error(err))
	}
}

func (n *JobNotifier) JobFailed(ctx context.Context, title, message string) {
	if n == nil || n.service == nil {
		return
	}
	if err := n.service.Publish(ctx, EventJobFailed, Payload{"title": title, "error": message}); err != nil {
		n.logger.Debug("failure notification failed", logging.Error(err))
	}
}
