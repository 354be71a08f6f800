package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"spellsync/internal/ipc"
	"spellsync/internal/practice"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(cmdCtx context.Context, client *ipc.Client, svc *practice.Service) error {
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					printDaemonStatus(cmd, status)
					return nil
				}

				report, err := svc.Status(cmdCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon: not running (showing local queue)")
				printQueueStats(cmd, queueStatsFromReport(report))
				return nil
			})
		},
	}
}

func printDaemonStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	out := cmd.OutOrStdout()
	running := "stopped"
	if status.Running {
		running = "running"
	}
	connectivity := "offline"
	if status.Online {
		connectivity = "online"
	}
	fmt.Fprintf(out, "Daemon: %s (pid %d)\n", running, status.PID)
	fmt.Fprintf(out, "Remote: %s\n", connectivity)
	if status.Syncing {
		fmt.Fprintln(out, "Sync:   in progress")
	} else if status.LastPassAt != "" {
		fmt.Fprintf(out, "Sync:   last pass %s (%.2fs)\n", status.LastPassAt, status.LastPassSecs)
	}
	printQueueStats(cmd, status.QueueStats)

	if len(status.Counters) > 0 {
		names := make([]string, 0, len(status.Counters))
		for name := range status.Counters {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, strconv.FormatUint(status.Counters[name], 10)})
		}
		fmt.Fprintln(out, renderTable([]string{"Counter", "Total"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
}

func printQueueStats(cmd *cobra.Command, stats map[string]int) {
	total := 0
	names := make([]string, 0, len(stats))
	for name, count := range stats {
		total += count
		if count > 0 {
			names = append(names, name)
		}
	}
	if total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
		return
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(stats[name])})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Bucket", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func queueStatsFromReport(report practice.StatusReport) map[string]int {
	return map[string]int{
		"pending_attempts": report.Queue.PendingAttempts,
		"pending_audio":    report.Queue.PendingAudio,
		"failed_attempts":  report.Queue.FailedAttempts,
		"failed_audio":     report.Queue.FailedAudio,
		"syncing_attempts": report.Queue.SyncingAttempts,
		"syncing_audio":    report.Queue.SyncingAudio,
	}
}
