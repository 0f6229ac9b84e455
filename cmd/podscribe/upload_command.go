package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"podscribe/internal/api"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <audio-file>",
		Short: "Stage a local audio file for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Upload(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Uploaded %s\n", filepath.Base(args[0]))
				fmt.Fprintf(out, "Token: %s\n", resp.FilePath)
				fmt.Fprintf(out, "Start the job with: podscribe transcribe %s\n", resp.FilePath)
				return nil
			})
		},
	}
}
