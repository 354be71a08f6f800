package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spellsync/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Trigger a sync pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := client.SyncNow()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !result.Ran {
					fmt.Fprintln(out, "Sync pass already in progress")
					return nil
				}
				if result.Message != "" {
					fmt.Fprintf(out, "Sync pass finished with errors: %s\n", result.Message)
				}
				fmt.Fprintf(out, "Synced %d attempts and %d audio clips", result.AttemptsSynced, result.AudioSynced)
				if result.AttemptsFailed+result.AudioFailed > 0 {
					fmt.Fprintf(out, " (%d failures)", result.AttemptsFailed+result.AudioFailed)
				}
				if result.AttemptsSkipped > 0 {
					fmt.Fprintf(out, ", %d attempts waiting on audio", result.AttemptsSkipped)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				return nil
			})
		},
	}
}
