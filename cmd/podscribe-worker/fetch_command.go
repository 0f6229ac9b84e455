package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/podcast"
)

// Fraction of the fetch spent locating the audio URL; the remainder tracks
// the download itself.
const resolveShare = 0.3

type fetchResult struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

func newFetchCommand(ctx *workerContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <episode-url> <output-path>",
		Short: "Download episode audio to the given path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			episodeURL := strings.TrimSpace(args[0])
			outputPath := strings.TrimSpace(args[1])
			if episodeURL == "" || outputPath == "" {
				return fmt.Errorf("episode url and output path are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			stderr := cmd.ErrOrStderr()
			client := podcast.NewConfiguredClient(cfg)

			emitProgress(stderr, 0.05, "download", "resolving episode feed")
			meta, err := client.EpisodeMetadata(cmd.Context(), episodeURL)
			if err != nil {
				// The feed lookup can re-derive the episode id from the
				// URL alone; metadata only improves title matching.
				fmt.Fprintf(stderr, "metadata lookup failed: %v\n", err)
			}

			enclosure, err := client.ResolveEnclosure(cmd.Context(), episodeURL, meta)
			if err != nil {
				emitToolError(stderr, err.Error())
				return err
			}
			emitProgress(stderr, resolveShare, "download", "audio located")

			err = client.DownloadAudio(cmd.Context(), enclosure.AudioURL, outputPath, func(fraction float64) {
				emitProgress(stderr, resolveShare+(1-resolveShare)*fraction, "download", "")
			})
			if err != nil {
				emitToolError(stderr, err.Error())
				return err
			}

			payload, err := json.Marshal(fetchResult{Path: outputPath, Title: enclosure.EpisodeTitle})
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
}
