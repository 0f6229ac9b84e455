package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/podcast"
)

func newMetadataCommand(ctx *workerContext) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <episode-url>",
		Short: "Resolve episode metadata and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episodeURL := strings.TrimSpace(args[0])
			if episodeURL == "" {
				return fmt.Errorf("episode url is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client := podcast.NewConfiguredClient(cfg)
			meta, err := client.EpisodeMetadata(cmd.Context(), episodeURL)
			if err != nil {
				emitToolError(cmd.ErrOrStderr(), err.Error())
				return err
			}

			payload, err := json.Marshal(meta)
			if err != nil {
				return fmt.Errorf("encode metadata: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
}
