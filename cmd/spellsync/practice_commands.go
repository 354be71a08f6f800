package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spellsync/internal/practice"
)

// practice commands always operate on the local store; queueing must work
// with or without a running daemon, and SQLite in WAL mode tolerates both
// processes touching the database.
func newPracticeCommand(ctx *commandContext) *cobra.Command {
	practiceCmd := &cobra.Command{
		Use:   "practice",
		Short: "Record practice results into the local queue",
	}
	practiceCmd.AddCommand(newPracticeAttemptCommand(ctx))
	return practiceCmd
}

func newPracticeAttemptCommand(ctx *commandContext) *cobra.Command {
	var (
		childID    string
		listID     string
		wordID     string
		word       string
		mode       string
		typed      string
		correct    bool
		firstTry   bool
		durationMS int64
		audioFile  string
	)

	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Queue one practice attempt (and optionally its audio clip)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocalService(cmd.Context(), func(cmdCtx context.Context, svc *practice.Service) error {
				input := practice.AttemptInput{
					ChildID:     childID,
					ListID:      listID,
					WordID:      wordID,
					Word:        word,
					Mode:        mode,
					Correct:     correct,
					FirstTry:    firstTry,
					TypedAnswer: typed,
					DurationMS:  durationMS,
					StartedAt:   time.Now().UTC(),
				}

				if audioFile != "" {
					payload, err := os.ReadFile(audioFile)
					if err != nil {
						return fmt.Errorf("read audio file: %w", err)
					}
					clip, err := svc.QueueAudio(cmdCtx, practice.AudioInput{
						ChildID: childID,
						ListID:  listID,
						WordID:  wordID,
						Payload: payload,
					})
					if err != nil {
						return err
					}
					input.AudioID = &clip.ID
					fmt.Fprintf(cmd.OutOrStdout(), "Queued audio clip %d (%s)\n", clip.ID, clip.DestPath)
				}

				attempt, err := svc.QueueAttempt(cmdCtx, input)
				if err != nil {
					return err
				}
				outcome := "miss"
				if attempt.Correct {
					outcome = "correct"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued attempt %d for %s/%s (%s)\n",
					attempt.ID, attempt.ChildID, attempt.WordID, outcome)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&childID, "child", "", "Child identifier")
	cmd.Flags().StringVar(&listID, "list", "", "Word list identifier")
	cmd.Flags().StringVar(&wordID, "word-id", "", "Word identifier")
	cmd.Flags().StringVar(&word, "word", "", "Expected spelling (used to grade typed answers)")
	cmd.Flags().StringVar(&mode, "mode", "typing", "Practice mode (typing, dictation, choice, scramble)")
	cmd.Flags().StringVar(&typed, "typed", "", "The answer the child typed")
	cmd.Flags().BoolVar(&correct, "correct", false, "Whether the attempt was correct (ignored when --word and --typed grade it)")
	cmd.Flags().BoolVar(&firstTry, "first-try", true, "Whether this was the first try on the word")
	cmd.Flags().Int64Var(&durationMS, "duration-ms", 0, "Attempt duration in milliseconds")
	cmd.Flags().StringVar(&audioFile, "audio-file", "", "Path to a recorded pronunciation clip to queue alongside")

	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("list")
	_ = cmd.MarkFlagRequired("word-id")

	return cmd
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var childID, wordID string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the review schedule for a child and word",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocalService(cmd.Context(), func(cmdCtx context.Context, svc *practice.Service) error {
				entry, err := svc.Schedule(cmdCtx, childID, wordID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if entry == nil {
					fmt.Fprintln(out, "No schedule yet; the word has not synced")
					return nil
				}
				rows := [][]string{
					{"Ease", fmt.Sprintf("%.2f", entry.Ease)},
					{"Interval (days)", fmt.Sprintf("%d", entry.IntervalDays)},
					{"Due", entry.Due.Format("2006-01-02")},
					{"Reps", fmt.Sprintf("%d", entry.Reps)},
					{"Lapses", fmt.Sprintf("%d", entry.Lapses)},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&childID, "child", "", "Child identifier")
	cmd.Flags().StringVar(&wordID, "word-id", "", "Word identifier")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("word-id")
	return cmd
}
