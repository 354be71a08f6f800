package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spellsync/internal/ipc"
	"spellsync/internal/practice"
	"spellsync/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the local sync queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued attempts and audio clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(cmdCtx context.Context, client *ipc.Client, svc *practice.Service) error {
				var attempts []ipc.AttemptItem
				var audio []ipc.AudioItem

				if client != nil {
					listing, err := client.QueueList()
					if err != nil {
						return err
					}
					attempts = listing.Attempts
					audio = listing.Audio
				} else {
					listing, err := svc.List(cmdCtx)
					if err != nil {
						return err
					}
					attempts, audio = convertListing(listing)
				}

				out := cmd.OutOrStdout()
				if len(attempts) == 0 && len(audio) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				if len(attempts) > 0 {
					rows := make([][]string, 0, len(attempts))
					for _, item := range attempts {
						rows = append(rows, []string{
							strconv.FormatInt(item.ID, 10),
							item.ChildID,
							item.WordID,
							item.Mode,
							attemptOutcome(item),
							displayState(item.State, item.Failed),
							strconv.Itoa(item.RetryCount),
							truncate(item.LastError, 48),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Child", "Word", "Mode", "Result", "State", "Retries", "Last Error"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
				}

				if len(audio) > 0 {
					rows := make([][]string, 0, len(audio))
					for _, item := range audio {
						rows = append(rows, []string{
							strconv.FormatInt(item.ID, 10),
							item.DestPath,
							displayState(item.State, item.Failed),
							strconv.Itoa(item.RetryCount),
							truncate(item.LastError, 48),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Destination", "State", "Retries", "Last Error"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}))
				}
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Restore failed items for another round of retries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args)
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(cmdCtx context.Context, client *ipc.Client, svc *practice.Service) error {
				if client != nil {
					resp, err := client.QueueRetry(kindFlag, ids)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Restored %d items\n", resp.Updated)
					return nil
				}

				kind, ok := queue.ParseKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown queue kind %q", kindFlag)
				}
				if len(ids) == 0 {
					listing, err := svc.List(cmdCtx)
					if err != nil {
						return err
					}
					ids = failedIDs(listing, kind)
				}
				var updated int64
				for _, id := range ids {
					restored, err := svc.Retry(cmdCtx, kind, id)
					if err != nil {
						return err
					}
					if restored {
						updated++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d items\n", updated)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "attempt", "Queue kind to retry (attempt or audio)")
	return cmd
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove terminally failed items from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(cmdCtx context.Context, client *ipc.Client, svc *practice.Service) error {
				var removed int64
				var err error
				if client != nil {
					var resp *ipc.QueueClearFailedResponse
					resp, err = client.QueueClearFailed()
					if resp != nil {
						removed = resp.Removed
					}
				} else {
					removed, err = svc.ClearFailed(cmdCtx)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed items\n", removed)
				return nil
			})
		},
	}
}

func convertListing(listing practice.QueueListing) ([]ipc.AttemptItem, []ipc.AudioItem) {
	attempts := make([]ipc.AttemptItem, 0, len(listing.PendingAttempts)+len(listing.FailedAttempts))
	for _, group := range [][]*queue.Attempt{listing.PendingAttempts, listing.FailedAttempts} {
		for _, attempt := range group {
			attempts = append(attempts, ipc.AttemptItem{
				ID:         attempt.ID,
				ChildID:    attempt.ChildID,
				ListID:     attempt.ListID,
				WordID:     attempt.WordID,
				Mode:       string(attempt.Mode),
				Correct:    attempt.Correct,
				State:      string(attempt.State),
				RetryCount: attempt.RetryCount,
				LastError:  attempt.LastError,
				Failed:     attempt.Terminal,
			})
		}
	}
	audio := make([]ipc.AudioItem, 0, len(listing.PendingAudio)+len(listing.FailedAudio))
	for _, group := range [][]*queue.Audio{listing.PendingAudio, listing.FailedAudio} {
		for _, clip := range group {
			audio = append(audio, ipc.AudioItem{
				ID:         clip.ID,
				DestPath:   clip.DestPath,
				State:      string(clip.State),
				RetryCount: clip.RetryCount,
				LastError:  clip.LastError,
				Failed:     clip.Terminal,
			})
		}
	}
	return attempts, audio
}

func failedIDs(listing practice.QueueListing, kind queue.Kind) []int64 {
	var ids []int64
	switch kind {
	case queue.KindAttempt:
		for _, attempt := range listing.FailedAttempts {
			ids = append(ids, attempt.ID)
		}
	case queue.KindAudio:
		for _, clip := range listing.FailedAudio {
			ids = append(ids, clip.ID)
		}
	}
	return ids
}

func parseIDArgs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func attemptOutcome(item ipc.AttemptItem) string {
	if item.Correct {
		return "correct"
	}
	return "miss"
}

func displayState(state string, failed bool) string {
	if failed {
		return "failed"
	}
	return state
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
