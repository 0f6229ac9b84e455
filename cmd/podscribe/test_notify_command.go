package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podscribe/internal/api"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.TestNotify(cmd.Context())
				if err != nil {
					return err
				}
				switch {
				case resp.Detail != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Detail)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
}
