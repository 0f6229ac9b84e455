package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/api"
	"podscribe/internal/language"
	"podscribe/internal/transcript"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var engine string
	var modelSize string
	var outputPath string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "transcribe <episode-url|audio-file|upload-token>",
		Short: "Transcribe an episode and wait for the result",
		Long: `Transcribe submits a job to the daemon and follows it to completion.

The argument may be a Spotify episode URL, a local audio file (uploaded
automatically), or a token from a previous "podscribe upload". Progress is
written to stderr so the transcript on stdout stays pipeable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				request, err := buildTranscribeRequest(cmd, client, args[0], engine, modelSize)
				if err != nil {
					return err
				}
				result, err := followTranscription(cmd, client, request, quiet)
				if err != nil {
					return err
				}
				return emitTranscript(cmd, result, outputPath)
			})
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "", "Speech recognition engine override")
	cmd.Flags().StringVar(&modelSize, "model-size", "", "Recognition model size override")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the transcript JSON to this file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func buildTranscribeRequest(cmd *cobra.Command, client *api.Client, source, engine, modelSize string) (api.TranscribeRequest, error) {
	request := api.TranscribeRequest{Engine: engine, ModelSize: modelSize}
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return request, errors.New("episode URL or audio file is required")
	case strings.Contains(source, "://"):
		request.SpotifyURL = source
	default:
		info, err := os.Stat(source)
		if err == nil && info.Mode().IsRegular() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Uploading %s...\n", filepath.Base(source))
			uploaded, uploadErr := client.Upload(cmd.Context(), source)
			if uploadErr != nil {
				return request, uploadErr
			}
			request.FilePath = uploaded.FilePath
		} else {
			// Not a local file; assume a token from a previous upload and
			// let the daemon reject it if it is unknown.
			request.FilePath = source
		}
	}
	return request, nil
}

func followTranscription(cmd *cobra.Command, client *api.Client, request api.TranscribeRequest, quiet bool) (*transcript.Transcript, error) {
	if quiet {
		return client.Transcribe(cmd.Context(), request)
	}

	var result *transcript.Transcript
	lastLine := ""
	err := client.TranscribeStream(cmd.Context(), request, func(event api.StreamEvent) error {
		switch event.Type {
		case api.StreamProgress:
			line := fmt.Sprintf("[%6s] %s", formatPercent(event.Percent), event.Message)
			if line == lastLine {
				return nil
			}
			lastLine = line
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		case api.StreamError:
			return fmt.Errorf("daemon: %s", event.Error)
		case api.StreamResult:
			decoded, err := event.Transcript()
			if err != nil {
				return fmt.Errorf("decode result: %w", err)
			}
			result = decoded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("stream ended without a transcript")
	}
	return result, nil
}

func emitTranscript(cmd *cobra.Command, result *transcript.Transcript, outputPath string) error {
	stdout := cmd.OutOrStdout()

	if outputPath != "" {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode transcript: %w", err)
		}
		if err := os.WriteFile(outputPath, append(payload, '\n'), 0o644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		fmt.Fprintf(stdout, "Transcript written to %s\n", outputPath)
		if result.Summary != "" {
			fmt.Fprintf(stdout, "\nSummary:\n%s\n", result.Summary)
		}
		return nil
	}

	var facts []string
	if result.Language != "" {
		facts = append(facts, language.DisplayName(result.Language))
	}
	if result.Duration > 0 {
		facts = append(facts, formatDuration(result.Duration))
	}
	if len(facts) > 0 {
		fmt.Fprintf(stdout, "Transcribed (%s)\n\n", strings.Join(facts, ", "))
	}
	if result.Summary != "" {
		fmt.Fprintf(stdout, "Summary:\n%s\n\n", result.Summary)
	}
	fmt.Fprintln(stdout, result.Text)
	return nil
}
