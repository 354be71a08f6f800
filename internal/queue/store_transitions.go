package queue

import (
	"context"
	"fmt"
	"time"
)

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindAttempt:
		return "queued_attempts", nil
	case KindAudio:
		return "queued_audio", nil
	default:
		return "", fmt.Errorf("unknown queue kind %q", kind)
	}
}

// MarkSyncing moves a pending item into the in-flight state.
func (s *Store) MarkSyncing(ctx context.Context, kind Kind, id int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE `+table+` SET state = ?, updated_at = ? WHERE id = ? AND terminal = 0`,
		StateSyncing,
		timestampNow(),
		id,
	); err != nil {
		return fmt.Errorf("mark syncing: %w", err)
	}
	return nil
}

// MarkSynced records confirmed remote acceptance. Re-applying is a no-op.
func (s *Store) MarkSynced(ctx context.Context, kind Kind, id int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE `+table+`
         SET state = ?, last_error = NULL, next_retry_at = NULL, updated_at = ?
         WHERE id = ? AND terminal = 0`,
		StateSynced,
		timestampNow(),
		id,
	); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// MarkAudioSynced stores the resolved remote path alongside the synced state.
// An attempt referencing this clip may only upload once the path is resolved.
func (s *Store) MarkAudioSynced(ctx context.Context, id int64, remotePath string) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE queued_audio
         SET state = ?, remote_path = ?, last_error = NULL, next_retry_at = NULL, updated_at = ?
         WHERE id = ? AND terminal = 0`,
		StateSynced,
		remotePath,
		timestampNow(),
		id,
	); err != nil {
		return fmt.Errorf("mark audio synced: %w", err)
	}
	return nil
}

// MarkFailed returns an item to pending with an incremented retry count, the
// failure detail, and the time before which it must not be retried.
func (s *Store) MarkFailed(ctx context.Context, kind Kind, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE `+table+`
         SET state = ?, retry_count = ?, last_error = ?, next_retry_at = ?, updated_at = ?
         WHERE id = ? AND terminal = 0`,
		StatePending,
		retryCount,
		lastError,
		nextRetryAt.UTC().Format(time.RFC3339Nano),
		timestampNow(),
		id,
	); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// MarkTerminal flags an item as a terminal failure requiring user action,
// persisting the retry count the item died with so the stored record reflects
// how much budget it consumed. Idempotent: re-applying a terminal mark is a
// no-op and preserves the original error detail.
func (s *Store) MarkTerminal(ctx context.Context, kind Kind, id int64, retryCount int, lastError string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE `+table+`
         SET terminal = 1, state = ?, retry_count = ?, last_error = ?, next_retry_at = NULL, updated_at = ?
         WHERE id = ? AND terminal = 0`,
		StatePending,
		retryCount,
		lastError,
		timestampNow(),
		id,
	); err != nil {
		return fmt.Errorf("mark terminal: %w", err)
	}
	return nil
}

// CascadeAudioTerminal marks every live attempt referencing a dead audio clip
// terminal as well, so dependent attempts do not stay pending forever.
func (s *Store) CascadeAudioTerminal(ctx context.Context, audioID int64, reason string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queued_attempts
         SET terminal = 1, last_error = ?, next_retry_at = NULL, updated_at = ?
         WHERE audio_id = ? AND terminal = 0 AND state != ?`,
		reason,
		timestampNow(),
		audioID,
		StateSynced,
	)
	if err != nil {
		return 0, fmt.Errorf("cascade audio terminal: %w", err)
	}
	return res.RowsAffected()
}

// RetryItem resets one terminal item to pending with a fresh retry budget.
// Returns false when the item does not exist or is not terminal.
func (s *Store) RetryItem(ctx context.Context, kind Kind, id int64) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE `+table+`
         SET terminal = 0, state = ?, retry_count = 0, last_error = NULL, next_retry_at = NULL, updated_at = ?
         WHERE id = ? AND terminal = 1`,
		StatePending,
		timestampNow(),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("retry item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ResetStuckSyncing returns items left in-flight by an interrupted pass back
// to pending. Called at Open so a crash mid-upload results in a retried, not
// lost, submission.
func (s *Store) ResetStuckSyncing(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"queued_attempts", "queued_audio"} {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE `+table+` SET state = ?, updated_at = ? WHERE state = ? AND terminal = 0`,
			StatePending,
			timestampNow(),
			StateSyncing,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck syncing: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}
