package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to adjust paths, tool commands, and the summarizer endpoint.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		// Loads without EnsureDirectories so inspection never touches disk.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file does not exist; showing defaults")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "api_bind:           %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "work_dir:           %s\n", cfg.Paths.WorkDir)
			fmt.Fprintf(out, "upload_dir:         %s\n", cfg.Paths.UploadDir)
			fmt.Fprintf(out, "log_dir:            %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "db_path:            %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "default engine:     %s (%s)\n", cfg.Pipeline.DefaultEngine, cfg.Pipeline.DefaultModelSize)
			fmt.Fprintf(out, "summarizer:         %s\n", summarizerValue(cfg))
			fmt.Fprintf(out, "notifications:      %s\n", yesNo(strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""))
			fmt.Fprintf(out, "upload limit:       %d MiB\n", cfg.Upload.MaxMiB)
			fmt.Fprintf(out, "stage timeouts:     metadata=%ds acquire=%ds recognize=%ds summarize=%ds\n",
				cfg.Pipeline.MetadataTimeout,
				cfg.Pipeline.AcquireTimeout,
				cfg.Pipeline.RecognizeTimeout,
				cfg.Pipeline.SummarizeTimeout,
			)
			fmt.Fprintf(out, "stall window:       %ds (checked every %ds)\n", cfg.Pipeline.StallWindow, cfg.Pipeline.StallCheckInterval)
			return nil
		},
	}
}

func summarizerValue(cfg *config.Config) string {
	base := strings.TrimSpace(cfg.Summary.BaseURL)
	if base == "" {
		return "extractive fallback (no endpoint configured)"
	}
	return fmt.Sprintf("%s (model %s)", base, cfg.Summary.Model)
}
