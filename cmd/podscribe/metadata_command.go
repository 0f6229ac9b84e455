package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"podscribe/internal/api"
)

func newMetadataCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "metadata <episode-url>",
		Short: "Look up episode metadata without starting a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				meta, err := client.Metadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, meta)
				}
				printMetadata(cmd.OutOrStdout(), meta)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func printMetadata(w io.Writer, meta *api.EpisodeMetadata) {
	fmt.Fprintf(w, "Title:     %s\n", meta.Title)
	if meta.Subtitle != "" {
		fmt.Fprintf(w, "Show:      %s\n", meta.Subtitle)
	}
	if meta.ReleaseDate != "" {
		fmt.Fprintf(w, "Released:  %s\n", meta.ReleaseDate)
	}
	if meta.URL != "" {
		fmt.Fprintf(w, "URL:       %s\n", meta.URL)
	}
	if meta.Description != "" {
		fmt.Fprintf(w, "\n%s\n", meta.Description)
	}
}
