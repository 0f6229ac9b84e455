package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/api"
	"podscribe/internal/history"
	"podscribe/internal/preflight"
	"podscribe/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			health, err := ctx.client().Health(cmd.Context())
			if err != nil && !errors.Is(err, services.ErrUnavailable) {
				return err
			}
			if health != nil {
				renderRemoteStatus(stdout, ctx.apiAddr(), health, colorize)
				return nil
			}
			// Daemon unreachable: run the same probes locally so status
			// stays useful before first start.
			return renderLocalStatus(cmd, ctx, colorize)
		},
	}
}

func renderRemoteStatus(stdout io.Writer, addr string, health *api.HealthResponse, colorize bool) {
	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	daemonKind := statusOK
	daemonMessage := fmt.Sprintf("running at %s", addr)
	if health.Status != "ok" {
		daemonKind = statusWarn
		daemonMessage = fmt.Sprintf("%s at %s", health.Status, addr)
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", daemonKind, daemonMessage, colorize))
	for _, check := range health.Checks {
		fmt.Fprintln(stdout, renderStatusLine(check.Name, passFailKind(check.Passed), check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(health.Dependencies, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Jobs", colorize) {
		fmt.Fprintln(stdout, line)
	}
	printJobCounts(stdout, health.Jobs)
}

func renderLocalStatus(cmd *cobra.Command, ctx *commandContext, colorize bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	notRunning := fmt.Sprintf("not running at %s (start it with `podscribe serve`)", ctx.apiAddr())
	fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, notRunning, colorize))

	checks := preflight.RunAll(cmd.Context(), cfg)
	if strings.TrimSpace(cfg.Summary.BaseURL) == "" {
		checks = append(checks, preflight.CheckSummarizerFromConfig(cfg))
	}
	checks = append(checks, preflight.CheckNotificationsFromConfig(cfg))
	for _, check := range checks {
		fmt.Fprintln(stdout, renderStatusLine(check.Name, passFailKind(check.Passed), check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(api.FromDependencies(preflight.CheckSystemDeps(cfg)), colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Jobs", colorize) {
		fmt.Fprintln(stdout, line)
	}
	store, err := history.Open(cfg)
	if err != nil {
		fmt.Fprintln(stdout, renderStatusLine("Job ledger", statusWarn, err.Error(), colorize))
		return nil
	}
	defer store.Close()
	summary, err := store.Health(cmd.Context())
	if err != nil {
		fmt.Fprintln(stdout, renderStatusLine("Job ledger", statusWarn, err.Error(), colorize))
		return nil
	}
	printJobCounts(stdout, api.FromHealthSummary(summary))
	return nil
}

func printJobCounts(stdout io.Writer, counts api.JobCounts) {
	if counts.Total == 0 {
		fmt.Fprintln(stdout, "No jobs recorded")
		return
	}
	rows := [][]string{
		{"Pending", fmt.Sprintf("%d", counts.Pending)},
		{"Active", fmt.Sprintf("%d", counts.Active)},
		{"Completed", fmt.Sprintf("%d", counts.Completed)},
		{"Failed", fmt.Sprintf("%d", counts.Failed)},
		{"Total", fmt.Sprintf("%d", counts.Total)},
	}
	fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func dependencyLines(deps []api.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(deps)+1)
	missing := make([]string, 0)
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}
