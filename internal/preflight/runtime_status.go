package preflight

import (
	"context"
	"strings"

	"podscribe/internal/config"
)

// CheckSummarizerFromConfig evaluates summarizer status from config and
// connectivity. Unlike CheckSummarizer, an unset endpoint reads as a healthy
// configuration because the summarize tool degrades to extractive output.
func CheckSummarizerFromConfig(cfg *config.Config) Result {
	const name = "Summarizer"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Summary.BaseURL) == "" {
		return Result{Name: name, Passed: true, Detail: "Extractive fallback (no endpoint configured)"}
	}
	return CheckSummarizer(context.Background(), name, cfg.Summary)
}

// CheckNotificationsFromConfig reports whether job notifications are set up.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: "ntfy topic configured"}
}
