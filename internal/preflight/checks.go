package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"podscribe/internal/config"
	"podscribe/internal/deps"
)

// CheckSummarizer verifies that the summarization endpoint is reachable and
// the API key, when set, is accepted. It issues a single short model-listing
// request with a 5-second timeout and no retries.
func CheckSummarizer(ctx context.Context, name string, cfg config.Summary) Result {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Bases naming the full completions route still expose /models at the
	// API root.
	endpoint := strings.TrimSuffix(base, "/chat/completions") + "/models"
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("endpoint check failed (%v)", err)}
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeProbeError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Endpoint reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	case http.StatusNotFound:
		// Some gateways expose only the completions route.
		return Result{Name: name, Passed: true, Detail: "Endpoint reachable (no model listing)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("endpoint check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the stage tool binaries for the given config.
// Both the daemon and the CLI status command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ToolRequirements(cfg))
}

// ToolRequirements derives the external tool list from the configured stage
// commands. Stages sharing a binary collapse into a single requirement.
func ToolRequirements(cfg *config.Config) []deps.Requirement {
	if cfg == nil {
		return nil
	}
	stages := []struct {
		stage string
		argv  []string
	}{
		{"metadata", cfg.MetadataCommand()},
		{"download", cfg.AcquireCommand()},
		{"transcribe", cfg.RecognizeCommand()},
		{"summarize", cfg.SummarizeCommand()},
	}

	var order []string
	uses := make(map[string][]string)
	for _, s := range stages {
		if len(s.argv) == 0 {
			continue
		}
		bin := strings.TrimSpace(s.argv[0])
		if bin == "" {
			continue
		}
		if _, seen := uses[bin]; !seen {
			order = append(order, bin)
		}
		uses[bin] = append(uses[bin], s.stage)
	}

	requirements := make([]deps.Requirement, 0, len(order))
	for _, bin := range order {
		label := "stage"
		if len(uses[bin]) > 1 {
			label = "stages"
		}
		requirements = append(requirements, deps.Requirement{
			Name:        bin,
			Command:     bin,
			Description: fmt.Sprintf("Runs the %s %s", strings.Join(uses[bin], ", "), label),
		})
	}
	return requirements
}

// summarizeProbeError produces a human-readable summary for summarizer
// endpoint check failures.
func summarizeProbeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "endpoint check timed out (summarizer unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "endpoint check timed out (summarizer unreachable)"
	}
	return err.Error()
}
