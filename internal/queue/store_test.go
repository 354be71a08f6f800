package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"spellsync/internal/queue"
	"spellsync/internal/srs"
	"spellsync/internal/testsupport"
)

func TestEnqueueSurvivesReopenInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	const count = 5
	for i := 0; i < count; i++ {
		testsupport.NewAttempt(t, store, "child-1", fmt.Sprintf("word-%d", i))
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	pending, err := reopened.PendingAttempts(context.Background())
	if err != nil {
		t.Fatalf("PendingAttempts: %v", err)
	}
	if len(pending) != count {
		t.Fatalf("expected %d pending attempts after reopen, got %d", count, len(pending))
	}
	for i, attempt := range pending {
		if want := fmt.Sprintf("word-%d", i); attempt.WordID != want {
			t.Fatalf("attempt %d out of order: got %s, want %s", i, attempt.WordID, want)
		}
	}
}

func TestOpenResetsStuckSyncing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	attempt := testsupport.NewAttempt(t, store, "child-1", "cat")
	if err := store.MarkSyncing(ctx, queue.KindAttempt, attempt.ID); err != nil {
		t.Fatalf("MarkSyncing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.AttemptByID(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if fetched.State != queue.StatePending {
		t.Fatalf("expected stuck item back to pending, got %s", fetched.State)
	}
}

func TestMarkTerminalIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	attempt := testsupport.NewAttempt(t, store, "child-1", "cat")
	if err := store.MarkTerminal(ctx, queue.KindAttempt, attempt.ID, 5, "http 401"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}
	// Re-applying must not overwrite the original error or count.
	if err := store.MarkTerminal(ctx, queue.KindAttempt, attempt.ID, 3, "other"); err != nil {
		t.Fatalf("second MarkTerminal: %v", err)
	}

	fetched, err := store.AttemptByID(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if !fetched.Terminal {
		t.Fatal("expected terminal flag")
	}
	if fetched.LastError != "http 401" {
		t.Fatalf("expected original error preserved, got %q", fetched.LastError)
	}
	if fetched.RetryCount != 5 {
		t.Fatalf("expected recorded retry count 5, got %d", fetched.RetryCount)
	}

	pending, err := store.PendingAttempts(ctx)
	if err != nil {
		t.Fatalf("PendingAttempts: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("terminal item should not be pending, got %d", len(pending))
	}
}

func TestDueAttemptsHonorsBackoffSchedule(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	early := testsupport.NewAttempt(t, store, "child-1", "cat")
	delayed := testsupport.NewAttempt(t, store, "child-1", "dog")

	if err := store.MarkFailed(ctx, queue.KindAttempt, delayed.ID, 1, "http 503", now.Add(time.Minute)); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	due, err := store.DueAttempts(ctx, now)
	if err != nil {
		t.Fatalf("DueAttempts: %v", err)
	}
	if len(due) != 1 || due[0].ID != early.ID {
		t.Fatalf("expected only the undelayed attempt due, got %v", due)
	}

	due, err = store.DueAttempts(ctx, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("DueAttempts after backoff: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected both attempts due after backoff, got %d", len(due))
	}
	if due[0].ID != early.ID || due[1].ID != delayed.ID {
		t.Fatal("backoff must not reorder the queue")
	}
	if due[1].RetryCount != 1 || due[1].LastError != "http 503" {
		t.Fatalf("expected retry bookkeeping preserved, got %+v", due[1])
	}
}

func TestAudioLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.NewAudio(t, store, "child-1/list-1/word-1_1700000000000")
	attempt := testsupport.NewAttempt(t, store, "child-1", "word-1", func(a *queue.Attempt) {
		a.AudioID = &audio.ID
	})

	if err := store.MarkAudioSynced(ctx, audio.ID, "practice-audio/child-1/list-1/word-1_1700000000000"); err != nil {
		t.Fatalf("MarkAudioSynced: %v", err)
	}

	// Still referenced by a live attempt: must not be removed.
	removed, err := store.RemoveSyncedAudio(ctx)
	if err != nil {
		t.Fatalf("RemoveSyncedAudio: %v", err)
	}
	if removed != 0 {
		t.Fatalf("audio removed while still referenced, removed=%d", removed)
	}

	if err := store.RemoveAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("RemoveAttempt: %v", err)
	}
	removed, err = store.RemoveSyncedAudio(ctx)
	if err != nil {
		t.Fatalf("RemoveSyncedAudio: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected orphaned synced audio removed, removed=%d", removed)
	}
}

func TestCascadeAudioTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.NewAudio(t, store, "child-1/list-1/word-1_1700000000000")
	dependent := testsupport.NewAttempt(t, store, "child-1", "word-1", func(a *queue.Attempt) {
		a.AudioID = &audio.ID
	})
	unrelated := testsupport.NewAttempt(t, store, "child-1", "word-2")

	if err := store.MarkTerminal(ctx, queue.KindAudio, audio.ID, 0, "http 413"); err != nil {
		t.Fatalf("MarkTerminal audio: %v", err)
	}
	cascaded, err := store.CascadeAudioTerminal(ctx, audio.ID, "audio upload failed: http 413")
	if err != nil {
		t.Fatalf("CascadeAudioTerminal: %v", err)
	}
	if cascaded != 1 {
		t.Fatalf("expected 1 cascaded attempt, got %d", cascaded)
	}

	fetched, err := store.AttemptByID(ctx, dependent.ID)
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if !fetched.Terminal {
		t.Fatal("dependent attempt should be terminal")
	}

	other, err := store.AttemptByID(ctx, unrelated.ID)
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if other.Terminal {
		t.Fatal("unrelated attempt must not cascade")
	}
}

func TestRetryItemResetsTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	attempt := testsupport.NewAttempt(t, store, "child-1", "cat")
	if err := store.MarkTerminal(ctx, queue.KindAttempt, attempt.ID, 5, "http 401"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}

	reset, err := store.RetryItem(ctx, queue.KindAttempt, attempt.ID)
	if err != nil {
		t.Fatalf("RetryItem: %v", err)
	}
	if !reset {
		t.Fatal("expected terminal item to reset")
	}

	fetched, err := store.AttemptByID(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if fetched.Terminal || fetched.State != queue.StatePending || fetched.RetryCount != 0 || fetched.LastError != "" {
		t.Fatalf("expected fresh pending item, got %+v", fetched)
	}

	// Non-terminal items are untouched.
	reset, err = store.RetryItem(ctx, queue.KindAttempt, attempt.ID)
	if err != nil {
		t.Fatalf("second RetryItem: %v", err)
	}
	if reset {
		t.Fatal("retry of a non-terminal item should be a no-op")
	}
}

func TestClearFailedAndCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewAttempt(t, store, "child-1", "cat")
	doomed := testsupport.NewAttempt(t, store, "child-1", "dog")
	audio := testsupport.NewAudio(t, store, "child-1/list-1/word-1_1700000000000")

	if err := store.MarkTerminal(ctx, queue.KindAttempt, doomed.ID, 0, "http 422"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}
	if err := store.MarkTerminal(ctx, queue.KindAudio, audio.ID, 0, "http 422"); err != nil {
		t.Fatalf("MarkTerminal audio: %v", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.PendingAttempts != 1 || counts.FailedAttempts != 1 || counts.FailedAudio != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	removed, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 purged records, got %d", removed)
	}

	counts, err = store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts after purge: %v", err)
	}
	if counts.FailedAttempts != 0 || counts.FailedAudio != 0 || counts.PendingAttempts != 1 {
		t.Fatalf("unexpected counts after purge: %+v", counts)
	}
}

func TestSRSEntryRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	missing, err := store.SRSEntry(ctx, "child-1", "cat")
	if err != nil {
		t.Fatalf("SRSEntry: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil entry for unpracticed word, got %+v", missing)
	}

	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	entry := srs.Transition(nil, srs.OutcomeFirstTrySuccess, today)
	if err := store.PutSRSEntry(ctx, "child-1", "cat", entry); err != nil {
		t.Fatalf("PutSRSEntry: %v", err)
	}

	stored, err := store.SRSEntry(ctx, "child-1", "cat")
	if err != nil {
		t.Fatalf("SRSEntry after put: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored entry")
	}
	if stored.Ease != entry.Ease || stored.IntervalDays != entry.IntervalDays || stored.Reps != entry.Reps {
		t.Fatalf("entry mismatch: got %+v, want %+v", stored, entry)
	}
	if !stored.Due.Equal(entry.Due) {
		t.Fatalf("due mismatch: got %v, want %v", stored.Due, entry.Due)
	}

	// Upsert overwrites in place.
	next := srs.Transition(stored, srs.OutcomeMiss, today.AddDate(0, 0, 1))
	if err := store.PutSRSEntry(ctx, "child-1", "cat", next); err != nil {
		t.Fatalf("PutSRSEntry upsert: %v", err)
	}
	updated, err := store.SRSEntry(ctx, "child-1", "cat")
	if err != nil {
		t.Fatalf("SRSEntry after upsert: %v", err)
	}
	if updated.Lapses != 1 || updated.IntervalDays != 0 {
		t.Fatalf("expected miss transition persisted, got %+v", updated)
	}
}

func TestParseHelpers(t *testing.T) {
	if kind, ok := queue.ParseKind(" Audio "); !ok || kind != queue.KindAudio {
		t.Fatalf("ParseKind: got %v %v", kind, ok)
	}
	if _, ok := queue.ParseKind("video"); ok {
		t.Fatal("ParseKind should reject unknown kinds")
	}
	if mode, ok := queue.ParseMode("DICTATION"); !ok || mode != queue.ModeDictation {
		t.Fatalf("ParseMode: got %v %v", mode, ok)
	}
	if _, ok := queue.ParseMode("osmosis"); ok {
		t.Fatal("ParseMode should reject unknown modes")
	}
	if state, ok := queue.ParseState("pending"); !ok || state != queue.StatePending {
		t.Fatalf("ParseState: got %v %v", state, ok)
	}
}
