package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podscribe/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the job ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				jobs, err := client.Jobs(cmd.Context(), listStatuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					buildJobRows(jobs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	jobsCmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	jobsCmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				job, err := client.Job(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobResponse{Job: *job})
				}
				printJobDetail(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Delete a finished job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				removed, err := client.RemoveJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %s was not removed\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove job records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			scope := ""
			switch {
			case clearCompleted:
				scope = "completed"
			case clearFailed:
				scope = "failed"
			}
			return ctx.withClient(func(client *api.Client) error {
				cleared, err := client.ClearJobs(cmd.Context(), scope)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch scope {
				case "completed":
					fmt.Fprintf(out, "Cleared %d completed jobs\n", cleared)
				case "failed":
					fmt.Fprintf(out, "Cleared %d failed jobs\n", cleared)
				default:
					fmt.Fprintf(out, "Cleared %d jobs\n", cleared)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}
