package main

import (
	"testing"

	"podscribe/internal/job"
)

func TestStatusAgainstRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJob(t, env, job.StatusCompleted)

	out, _, err := runCLI(t, []string{"status"}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== System Status ==")
	requireContains(t, out, "running at "+env.addr)
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "metadata-tool")
	requireContains(t, out, "== Jobs ==")
	requireContains(t, out, "Completed")
}

func TestStatusFallsBackWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	// Reserved port; nothing listens there.
	out, _, err := runCLI(t, []string{"status"}, "127.0.0.1:1", env.configPath)
	if err != nil {
		t.Fatalf("status fallback: %v", err)
	}
	requireContains(t, out, "not running at 127.0.0.1:1")
	requireContains(t, out, "podscribe serve")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "== Jobs ==")
}
