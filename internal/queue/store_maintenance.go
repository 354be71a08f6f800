package queue

import (
	"context"
	"fmt"
)

// Counts aggregates live queue state per kind for status output. The store is
// authoritative for these numbers; cumulative telemetry counters are not.
func (s *Store) Counts(ctx context.Context) (HealthSummary, error) {
	summary := HealthSummary{}
	ctx = ensureContext(ctx)

	type bucket struct {
		state    State
		terminal int
		count    int
	}

	scanTable := func(table string) ([]bucket, error) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT state, terminal, COUNT(1) FROM `+table+` GROUP BY state, terminal`)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		defer rows.Close()

		var buckets []bucket
		for rows.Next() {
			var b bucket
			var stateStr string
			if err := rows.Scan(&stateStr, &b.terminal, &b.count); err != nil {
				return nil, err
			}
			b.state = State(stateStr)
			buckets = append(buckets, b)
		}
		return buckets, rows.Err()
	}

	attemptBuckets, err := scanTable("queued_attempts")
	if err != nil {
		return summary, err
	}
	for _, b := range attemptBuckets {
		switch {
		case b.terminal != 0:
			summary.FailedAttempts += b.count
		case b.state == StateSyncing:
			summary.SyncingAttempts += b.count
		case b.state == StatePending:
			summary.PendingAttempts += b.count
		}
	}

	audioBuckets, err := scanTable("queued_audio")
	if err != nil {
		return summary, err
	}
	for _, b := range audioBuckets {
		switch {
		case b.terminal != 0:
			summary.FailedAudio += b.count
		case b.state == StateSyncing:
			summary.SyncingAudio += b.count
		case b.state == StatePending:
			summary.PendingAudio += b.count
		}
	}

	return summary, nil
}

// PurgeTerminal deletes terminal-failure records of one kind. User-initiated.
func (s *Store) PurgeTerminal(ctx context.Context, kind Kind) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM `+table+` WHERE terminal = 1`)
	if err != nil {
		return 0, fmt.Errorf("purge terminal: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed purges terminal records of both kinds.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	var total int64
	for _, kind := range []Kind{KindAttempt, KindAudio} {
		removed, err := s.PurgeTerminal(ctx, kind)
		if err != nil {
			return total, err
		}
		total += removed
	}
	return total, nil
}

// Clear removes all queue records of both kinds. Used when adopting a new
// schema version or by explicit user request.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"queued_attempts", "queued_audio"} {
		res, err := s.execWithRetry(ctx, `DELETE FROM `+table)
		if err != nil {
			return total, fmt.Errorf("clear queue: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
	}
	return total, nil
}
