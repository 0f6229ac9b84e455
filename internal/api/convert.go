package api

import (
	"time"

	"podscribe/internal/deps"
	"podscribe/internal/history"
	"podscribe/internal/preflight"
)

// FromRecord converts a ledger record into its wire representation.
func FromRecord(record *history.Record) Job {
	if record == nil {
		return Job{}
	}
	out := Job{
		ID:        record.ID,
		Source:    record.SourceSummary(),
		Engine:    record.Engine,
		ModelSize: record.ModelSize,
		Status:    string(record.Status),
		Title:     record.Title,
		Progress: Progress{
			Stage:   record.ProgressStage,
			Percent: record.ProgressPercent,
			Message: record.ProgressMessage,
		},
		ErrorKind:       record.ErrorKind,
		ErrorMessage:    record.ErrorMessage,
		Language:        record.Language,
		DurationSeconds: record.DurationSeconds,
		CreatedAt:       formatTime(record.CreatedAt),
		UpdatedAt:       formatTime(record.UpdatedAt),
	}
	if record.CompletedAt != nil {
		out.CompletedAt = formatTime(*record.CompletedAt)
	}
	return out
}

// FromRecords converts a record slice, preserving order.
func FromRecords(records []*history.Record) []Job {
	jobs := make([]Job, 0, len(records))
	for _, record := range records {
		jobs = append(jobs, FromRecord(record))
	}
	return jobs
}

// FromPreflight converts preflight probe results.
func FromPreflight(results []preflight.Result) []HealthCheck {
	checks := make([]HealthCheck, 0, len(results))
	for _, result := range results {
		checks = append(checks, HealthCheck{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return checks
}

// FromDependencies converts binary availability statuses.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return out
}

// FromHealthSummary converts ledger occupancy counts.
func FromHealthSummary(summary history.HealthSummary) JobCounts {
	return JobCounts{
		Total:     summary.Total,
		Pending:   summary.Pending,
		Active:    summary.Active,
		Completed: summary.Completed,
		Failed:    summary.Failed,
	}
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(dateTimeFormat)
}
