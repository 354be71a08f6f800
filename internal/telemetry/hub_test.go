package telemetry

import (
	"testing"
	"time"
)

func TestIncrementNotifiesSynchronously(t *testing.T) {
	hub := NewHub()

	var seen []Snapshot
	unsubscribe := hub.Subscribe(func(s Snapshot) {
		seen = append(seen, s)
	})
	defer unsubscribe()

	hub.Increment(CounterAttemptsSynced)
	hub.Increment(CounterAttemptsSynced)
	hub.Increment(CounterAudioFailed)

	if len(seen) != 3 {
		t.Fatalf("expected 3 synchronous notifications, got %d", len(seen))
	}
	last := seen[len(seen)-1]
	if last.Counters[CounterAttemptsSynced] != 2 {
		t.Fatalf("attempts_synced = %d, want 2", last.Counters[CounterAttemptsSynced])
	}
	if last.Counters[CounterAudioFailed] != 1 {
		t.Fatalf("audio_failed = %d, want 1", last.Counters[CounterAudioFailed])
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	hub := NewHub()

	calls := 0
	unsubscribe := hub.Subscribe(func(Snapshot) { calls++ })
	hub.Increment(CounterAttemptsQueued)
	unsubscribe()
	hub.Increment(CounterAttemptsQueued)

	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestRecordPass(t *testing.T) {
	hub := NewHub()
	completed := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	hub.SetSyncing(true)
	if !hub.Current().Syncing {
		t.Fatal("expected syncing flag set")
	}

	hub.RecordPass(completed, 750*time.Millisecond)
	snapshot := hub.Current()
	if !snapshot.LastPassAt.Equal(completed) {
		t.Fatalf("LastPassAt = %v, want %v", snapshot.LastPassAt, completed)
	}
	if snapshot.LastPassDuration != 750*time.Millisecond {
		t.Fatalf("LastPassDuration = %v", snapshot.LastPassDuration)
	}
	if snapshot.Syncing {
		t.Fatal("pass completion should clear the syncing flag")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	hub := NewHub()
	hub.Increment(CounterAudioSynced)

	snapshot := hub.Current()
	snapshot.Counters[CounterAudioSynced] = 99

	if hub.Current().Counters[CounterAudioSynced] != 1 {
		t.Fatal("mutating a snapshot must not affect the hub")
	}
}
