package preflight

import (
	"context"
	"strings"

	"podscribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run for features that are configured: an unset summarizer
// endpoint is a valid setup (extractive fallback), not a failure.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if strings.TrimSpace(cfg.Summary.BaseURL) != "" {
		results = append(results, CheckSummarizer(ctx, "Summarizer", cfg.Summary))
	}

	return results
}
