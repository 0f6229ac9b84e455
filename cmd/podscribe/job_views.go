package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"podscribe/internal/api"
	"podscribe/internal/language"
)

// buildJobRows orders jobs newest first for the listing table.
func buildJobRows(jobs []api.Job) [][]string {
	sorted := make([]api.Job, len(jobs))
	copy(sorted, jobs)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseJobTime(sorted[i].CreatedAt)
		tj := parseJobTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		rows = append(rows, []string{
			job.ID,
			jobTitle(job),
			formatStatusLabel(job.Status),
			formatPercent(job.Progress.Percent),
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

func printJobDetail(w io.Writer, job *api.Job) {
	fmt.Fprintf(w, "ID:         %s\n", job.ID)
	fmt.Fprintf(w, "Source:     %s\n", job.Source)
	if job.Title != "" {
		fmt.Fprintf(w, "Title:      %s\n", job.Title)
	}
	fmt.Fprintf(w, "Status:     %s\n", formatStatusLabel(job.Status))
	progress := formatPercent(job.Progress.Percent)
	if job.Progress.Message != "" {
		progress += " (" + job.Progress.Message + ")"
	}
	fmt.Fprintf(w, "Progress:   %s\n", progress)
	fmt.Fprintf(w, "Engine:     %s (%s)\n", job.Engine, job.ModelSize)
	if job.Language != "" {
		fmt.Fprintf(w, "Language:   %s\n", language.DisplayName(job.Language))
	}
	if job.DurationSeconds > 0 {
		fmt.Fprintf(w, "Duration:   %s\n", formatDuration(job.DurationSeconds))
	}
	fmt.Fprintf(w, "Created:    %s\n", formatDisplayTime(job.CreatedAt))
	fmt.Fprintf(w, "Updated:    %s\n", formatDisplayTime(job.UpdatedAt))
	if job.CompletedAt != "" {
		fmt.Fprintf(w, "Completed:  %s\n", formatDisplayTime(job.CompletedAt))
	}
	if job.ErrorMessage != "" {
		kind := job.ErrorKind
		if kind == "" {
			kind = "error"
		}
		fmt.Fprintf(w, "Error:      %s: %s\n", kind, job.ErrorMessage)
	}
}

func jobTitle(job api.Job) string {
	if title := strings.TrimSpace(job.Title); title != "" {
		return title
	}
	if source := strings.TrimSpace(job.Source); source != "" {
		return source
	}
	return "Unknown"
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatPercent(percent float64) string {
	return strconv.FormatFloat(percent, 'f', -1, 64) + "%"
}

func formatDuration(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseJobTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
