package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/services/llm"
	"podscribe/internal/transcript"
)

func newSummarizeCommand(ctx *workerContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a transcript read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			t, err := transcript.Decode(string(raw))
			if err != nil {
				emitToolError(cmd.ErrOrStderr(), err.Error())
				return err
			}

			client := llm.NewClient(llm.Config{
				APIKey:         cfg.Summary.APIKey,
				BaseURL:        cfg.Summary.BaseURL,
				Model:          cfg.Summary.Model,
				TimeoutSeconds: cfg.Summary.TimeoutSeconds,
			})

			summary := ""
			if client.Configured() {
				summary, err = client.Summarize(cmd.Context(), t.Text)
				if err != nil {
					// A broken endpoint degrades to extractive output
					// rather than failing the job.
					fmt.Fprintf(cmd.ErrOrStderr(), "llm summarization failed: %v\n", err)
					summary = ""
				}
			}
			if strings.TrimSpace(summary) == "" {
				summary = llm.ExtractiveSummary(t.Text, cfg.Summary.MaxSentences)
			}
			if strings.TrimSpace(summary) == "" {
				err := fmt.Errorf("transcript yielded no summary")
				emitToolError(cmd.ErrOrStderr(), err.Error())
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
