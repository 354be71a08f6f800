package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spellsync/internal/services"
)

const audioColumns = "id, dest_path, payload, content_type, state, retry_count, last_error, terminal, remote_path, next_retry_at, created_at, updated_at"

// EnqueueAudio persists a recorded clip awaiting upload. Same contract as
// EnqueueAttempt: independent of connectivity, fatal only on storage errors.
func (s *Store) EnqueueAudio(ctx context.Context, audio *Audio) (*Audio, error) {
	if audio == nil {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue audio", "audio is nil", nil)
	}
	if len(audio.Payload) == 0 {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue audio", "payload is empty", nil)
	}
	contentType := audio.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}
	timestamp := timestampNow()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queued_audio (
            dest_path, payload, content_type, state, retry_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		audio.DestPath,
		audio.Payload,
		contentType,
		StatePending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "queue", "enqueue audio", "insert failed", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "queue", "enqueue audio", "last insert id", err)
	}

	return s.AudioByID(ctx, id)
}

// AudioByID fetches an audio record by identifier, returning (nil, nil) when absent.
func (s *Store) AudioByID(ctx context.Context, id int64) (*Audio, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+audioColumns+` FROM queued_audio WHERE id = ?`, id)
	audio, err := scanAudio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audio: %w", err)
	}
	return audio, nil
}

// PendingAudio returns non-terminal, unsynced audio records in insertion order.
func (s *Store) PendingAudio(ctx context.Context) ([]*Audio, error) {
	return s.queryAudio(ctx,
		`SELECT `+audioColumns+` FROM queued_audio WHERE terminal = 0 AND state != ? ORDER BY id`,
		StateSynced,
	)
}

// DueAudio returns pending audio records whose retry backoff has elapsed.
func (s *Store) DueAudio(ctx context.Context, now time.Time) ([]*Audio, error) {
	return s.queryAudio(ctx,
		`SELECT `+audioColumns+` FROM queued_audio
         WHERE terminal = 0 AND state = ?
           AND (next_retry_at IS NULL OR next_retry_at <= ?)
         ORDER BY id`,
		StatePending,
		now.UTC().Format(time.RFC3339Nano),
	)
}

// FailedAudio returns terminal audio records in insertion order.
func (s *Store) FailedAudio(ctx context.Context) ([]*Audio, error) {
	return s.queryAudio(ctx,
		`SELECT `+audioColumns+` FROM queued_audio WHERE terminal = 1 ORDER BY id`,
	)
}

// RemoveSyncedAudio deletes audio records that are synced and no longer
// referenced by any live attempt: the clip's remote path has been consumed by
// every dependent attempt, or the record is orphaned.
func (s *Store) RemoveSyncedAudio(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM queued_audio
         WHERE state = ?
           AND id NOT IN (SELECT audio_id FROM queued_attempts WHERE audio_id IS NOT NULL)`,
		StateSynced,
	)
	if err != nil {
		return 0, fmt.Errorf("remove synced audio: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) queryAudio(ctx context.Context, query string, args ...any) ([]*Audio, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audio: %w", err)
	}
	defer rows.Close()

	var records []*Audio
	for rows.Next() {
		audio, err := scanAudio(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, audio)
	}
	return records, rows.Err()
}

func scanAudio(scanner interface{ Scan(dest ...any) error }) (*Audio, error) {
	var (
		id          int64
		destPath    string
		payload     []byte
		contentType string
		stateStr    string
		retryCount  int
		lastError   sql.NullString
		terminal    int
		remotePath  sql.NullString
		nextRetry   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&destPath,
		&payload,
		&contentType,
		&stateStr,
		&retryCount,
		&lastError,
		&terminal,
		&remotePath,
		&nextRetry,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	audio := &Audio{
		ID:          id,
		DestPath:    destPath,
		Payload:     payload,
		ContentType: contentType,
		State:       State(stateStr),
		RetryCount:  retryCount,
		LastError:   lastError.String,
		Terminal:    terminal != 0,
		RemotePath:  remotePath.String,
	}
	if nextRetry.Valid {
		if t, err := parseTimeString(nextRetry.String); err == nil {
			audio.NextRetryAt = &t
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		audio.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		audio.UpdatedAt = updated
	}
	return audio, nil
}
