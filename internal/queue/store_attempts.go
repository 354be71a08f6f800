package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spellsync/internal/services"
)

const attemptColumns = "id, attempt_key, child_id, list_id, word_id, mode, correct, first_try, typed_answer, audio_id, duration_ms, started_at, state, retry_count, last_error, terminal, next_retry_at, created_at, updated_at"

// EnqueueAttempt persists a new practice attempt. It never fails due to
// network state; failures are local storage errors and are fatal.
func (s *Store) EnqueueAttempt(ctx context.Context, attempt *Attempt) (*Attempt, error) {
	if attempt == nil {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue attempt", "attempt is nil", nil)
	}
	timestamp := timestampNow()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queued_attempts (
            attempt_key, child_id, list_id, word_id, mode, correct, first_try,
            typed_answer, audio_id, duration_ms, started_at, state, retry_count,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		attempt.AttemptKey,
		attempt.ChildID,
		attempt.ListID,
		attempt.WordID,
		attempt.Mode,
		boolToInt(attempt.Correct),
		boolToInt(attempt.FirstTry),
		nullableString(attempt.TypedAnswer),
		nullableInt64(attempt.AudioID),
		attempt.DurationMS,
		attempt.StartedAt.UTC().Format(time.RFC3339Nano),
		StatePending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "queue", "enqueue attempt", "insert failed", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "queue", "enqueue attempt", "last insert id", err)
	}

	return s.AttemptByID(ctx, id)
}

// AttemptByID fetches an attempt by identifier, returning (nil, nil) when absent.
func (s *Store) AttemptByID(ctx context.Context, id int64) (*Attempt, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+attemptColumns+` FROM queued_attempts WHERE id = ?`, id)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// PendingAttempts returns non-terminal, unsynced attempts in insertion order.
func (s *Store) PendingAttempts(ctx context.Context) ([]*Attempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptColumns+` FROM queued_attempts WHERE terminal = 0 AND state != ? ORDER BY id`,
		StateSynced,
	)
}

// DueAttempts returns pending attempts whose retry backoff has elapsed, in
// insertion order. Items never reorder; backoff only delays them.
func (s *Store) DueAttempts(ctx context.Context, now time.Time) ([]*Attempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptColumns+` FROM queued_attempts
         WHERE terminal = 0 AND state = ?
           AND (next_retry_at IS NULL OR next_retry_at <= ?)
         ORDER BY id`,
		StatePending,
		now.UTC().Format(time.RFC3339Nano),
	)
}

// FailedAttempts returns terminal attempts in insertion order.
func (s *Store) FailedAttempts(ctx context.Context) ([]*Attempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptColumns+` FROM queued_attempts WHERE terminal = 1 ORDER BY id`,
	)
}

// RemoveAttempt deletes an attempt after confirmed remote acceptance.
func (s *Store) RemoveAttempt(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM queued_attempts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove attempt: %w", err)
	}
	return nil
}

func (s *Store) queryAttempts(ctx context.Context, query string, args ...any) ([]*Attempt, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		id          int64
		attemptKey  string
		childID     string
		listID      string
		wordID      string
		modeStr     string
		correct     int
		firstTry    int
		typedAnswer sql.NullString
		audioID     sql.NullInt64
		durationMS  int64
		startedRaw  sql.NullString
		stateStr    string
		retryCount  int
		lastError   sql.NullString
		terminal    int
		nextRetry   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&attemptKey,
		&childID,
		&listID,
		&wordID,
		&modeStr,
		&correct,
		&firstTry,
		&typedAnswer,
		&audioID,
		&durationMS,
		&startedRaw,
		&stateStr,
		&retryCount,
		&lastError,
		&terminal,
		&nextRetry,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	attempt := &Attempt{
		ID:          id,
		AttemptKey:  attemptKey,
		ChildID:     childID,
		ListID:      listID,
		WordID:      wordID,
		Mode:        Mode(modeStr),
		Correct:     correct != 0,
		FirstTry:    firstTry != 0,
		TypedAnswer: typedAnswer.String,
		DurationMS:  durationMS,
		State:       State(stateStr),
		RetryCount:  retryCount,
		LastError:   lastError.String,
		Terminal:    terminal != 0,
	}
	if audioID.Valid {
		value := audioID.Int64
		attempt.AudioID = &value
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		attempt.StartedAt = started
	}
	if nextRetry.Valid {
		if t, err := parseTimeString(nextRetry.String); err == nil {
			attempt.NextRetryAt = &t
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		attempt.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		attempt.UpdatedAt = updated
	}
	return attempt, nil
}
