package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"podscribe/internal/api"
	"podscribe/internal/job"
)

func TestJobsListAndFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	completed := seedJob(t, env, job.StatusCompleted)
	failed := seedJob(t, env, job.StatusFailed)
	seedJob(t, env, job.StatusPending)

	out, _, err := runCLI(t, []string{"jobs"}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, completed.ID)
	requireContains(t, out, failed.ID)
	requireContains(t, out, "Completed")
	requireContains(t, out, "Pending")

	out, _, err = runCLI(t, []string{"jobs", "-s", "failed"}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs -s failed: %v", err)
	}
	requireContains(t, out, failed.ID)
	if strings.Contains(out, completed.ID) {
		t.Fatalf("expected filtered listing to omit %s, got %q", completed.ID, out)
	}

	out, _, err = runCLI(t, []string{"jobs", "--json"}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs --json: %v", err)
	}
	var listing api.JobListResponse
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(listing.Jobs))
	}
}

func TestJobsEmptyState(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"jobs"}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "No jobs recorded")
}

func TestJobsShow(t *testing.T) {
	env := setupCLITestEnv(t)
	record := seedJob(t, env, job.StatusCompleted)

	out, _, err := runCLI(t, []string{"jobs", "show", record.ID}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, record.ID)
	requireContains(t, out, "Status:     Completed")
	requireContains(t, out, "https://example.com/ep")

	if _, _, err := runCLI(t, []string{"jobs", "show", "missing"}, env.addr, env.configPath); err == nil {
		t.Fatal("expected unknown job to fail")
	}
}

func TestJobsRemoveAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	completed := seedJob(t, env, job.StatusCompleted)
	seedJob(t, env, job.StatusFailed)

	out, _, err := runCLI(t, []string{"jobs", "remove", completed.ID}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs remove: %v", err)
	}
	requireContains(t, out, "Removed job "+completed.ID)
	if record, err := env.store.GetByID(context.Background(), completed.ID); err != nil || record != nil {
		t.Fatalf("expected record gone, got %+v (err %v)", record, err)
	}

	out, _, err = runCLI(t, []string{"jobs", "clear", "--failed"}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear --failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed jobs")

	if _, _, err := runCLI(t, []string{"jobs", "clear", "--failed", "--completed"}, env.addr, env.configPath); err == nil {
		t.Fatal("expected conflicting clear flags to fail")
	}
}
