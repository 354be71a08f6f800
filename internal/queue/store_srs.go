package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spellsync/internal/srs"
)

// SRSEntry fetches the local mirror of a (child, word) review schedule,
// returning (nil, nil) when the word has never been practiced.
func (s *Store) SRSEntry(ctx context.Context, childID, wordID string) (*srs.Entry, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT ease, interval_days, due_date, reps, lapses, updated_at
         FROM srs_entries WHERE child_id = ? AND word_id = ?`,
		childID, wordID,
	)

	var (
		entry      srs.Entry
		dueRaw     string
		updatedRaw string
	)
	err := row.Scan(&entry.Ease, &entry.IntervalDays, &dueRaw, &entry.Reps, &entry.Lapses, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get srs entry: %w", err)
	}
	if due, err := parseTimeString(dueRaw); err == nil {
		entry.Due = due
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return &entry, nil
}

// PutSRSEntry upserts the local mirror for a (child, word) pair. Written only
// after the remote upsert is confirmed, so the mirror never runs ahead of the
// remote store.
func (s *Store) PutSRSEntry(ctx context.Context, childID, wordID string, entry srs.Entry) error {
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO srs_entries (child_id, word_id, ease, interval_days, due_date, reps, lapses, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(child_id, word_id) DO UPDATE SET
            ease = excluded.ease,
            interval_days = excluded.interval_days,
            due_date = excluded.due_date,
            reps = excluded.reps,
            lapses = excluded.lapses,
            updated_at = excluded.updated_at`,
		childID,
		wordID,
		entry.Ease,
		entry.IntervalDays,
		entry.Due.UTC().Format(time.RFC3339Nano),
		entry.Reps,
		entry.Lapses,
		entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("put srs entry: %w", err)
	}
	return nil
}
