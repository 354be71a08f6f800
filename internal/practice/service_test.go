package practice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spellsync/internal/queue"
	"spellsync/internal/services"
	"spellsync/internal/syncer"
	"spellsync/internal/telemetry"
	"spellsync/internal/testsupport"
)

type fakeRunner struct {
	result syncer.PassResult
	err    error
	calls  int
}

func (f *fakeRunner) RunPass(ctx context.Context) (syncer.PassResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestService(t *testing.T, runner PassRunner) (*Service, *queue.Store, *telemetry.Hub) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	hub := telemetry.NewHub()
	return NewService(store, hub, runner, nil), store, hub
}

func TestQueueAttemptGradesTypedAnswer(t *testing.T) {
	svc, _, hub := newTestService(t, nil)
	ctx := context.Background()

	stored, err := svc.QueueAttempt(ctx, AttemptInput{
		ChildID:     "child-1",
		ListID:      "list-1",
		WordID:      "word-1",
		Word:        "café",
		Mode:        "typing",
		Correct:     false,
		FirstTry:    true,
		TypedAnswer: "Café",
		DurationMS:  3100,
	})
	if err != nil {
		t.Fatalf("QueueAttempt failed: %v", err)
	}
	if !stored.Correct {
		t.Error("expected normalized typed answer to grade correct")
	}
	if stored.AttemptKey == "" {
		t.Error("expected generated attempt key")
	}
	if stored.TypedAnswer != "café" {
		t.Errorf("expected normalized stored answer, got %q", stored.TypedAnswer)
	}
	if got := hub.Current().Counters[telemetry.CounterAttemptsQueued]; got != 1 {
		t.Errorf("expected attempts_queued counter 1, got %d", got)
	}
}

func TestQueueAttemptRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.QueueAttempt(ctx, AttemptInput{ChildID: "child-1", Mode: "typing"})
	if err == nil {
		t.Fatal("expected validation error for missing identifiers")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation marker, got %v", err)
	}

	_, err = svc.QueueAttempt(ctx, AttemptInput{
		ChildID: "child-1", ListID: "list-1", WordID: "word-1", Mode: "osmosis",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation marker for unknown mode, got %v", err)
	}
}

func TestQueueAudioBuildsDestPath(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	recordedAt := time.UnixMilli(1700000000123).UTC()
	stored, err := svc.QueueAudio(ctx, AudioInput{
		ChildID:    "child-1",
		ListID:     "list-2",
		WordID:     "word-3",
		Payload:    []byte("riff"),
		RecordedAt: recordedAt,
	})
	if err != nil {
		t.Fatalf("QueueAudio failed: %v", err)
	}
	want := "child-1/list-2/word-3_1700000000123"
	if stored.DestPath != want {
		t.Errorf("expected dest path %q, got %q", want, stored.DestPath)
	}
}

func TestAudioDestPathSanitizesSegments(t *testing.T) {
	got := AudioDestPath("child/1", "list 2", "word-3", time.UnixMilli(42).UTC())
	if strings.Count(got, "/") != 2 {
		t.Errorf("expected exactly two path separators, got %q", got)
	}
	if !strings.HasSuffix(got, "_42") {
		t.Errorf("expected millisecond suffix, got %q", got)
	}
}

func TestSyncNowReportsInProgressPass(t *testing.T) {
	runner := &fakeRunner{err: syncer.ErrPassInProgress}
	svc, _, _ := newTestService(t, runner)

	_, ran, err := svc.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("SyncNow returned error for in-flight pass: %v", err)
	}
	if ran {
		t.Error("expected ran=false while another pass holds the queue")
	}

	runner.err = nil
	runner.result = syncer.PassResult{AttemptsSynced: 3}
	result, ran, err := svc.SyncNow(context.Background())
	if err != nil || !ran {
		t.Fatalf("expected successful pass, got ran=%v err=%v", ran, err)
	}
	if result.AttemptsSynced != 3 {
		t.Errorf("unexpected pass result: %+v", result)
	}
}

func TestStatusAndList(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	ctx := context.Background()

	testsupport.NewAttempt(t, store, "child-1", "word-1")
	testsupport.NewAudio(t, store, "child-1/list-1/word-1_1")

	report, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Queue.PendingAttempts != 1 || report.Queue.PendingAudio != 1 {
		t.Errorf("unexpected queue counts: %+v", report.Queue)
	}

	listing, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.PendingAttempts) != 1 || len(listing.PendingAudio) != 1 {
		t.Errorf("unexpected listing: %d attempts, %d audio",
			len(listing.PendingAttempts), len(listing.PendingAudio))
	}
	if len(listing.FailedAttempts) != 0 || len(listing.FailedAudio) != 0 {
		t.Error("expected no failed records")
	}
}

func TestRetryRestoresFailedAttemptAndTriggersPass(t *testing.T) {
	runner := &fakeRunner{}
	svc, store, _ := newTestService(t, runner)
	ctx := context.Background()

	stored := testsupport.NewAttempt(t, store, "child-1", "word-1")
	if err := store.MarkTerminal(ctx, queue.KindAttempt, stored.ID, 5, "gave up"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}

	ok, err := svc.Retry(ctx, queue.KindAttempt, stored.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !ok {
		t.Fatal("expected retry to restore the attempt")
	}
	if runner.calls != 1 {
		t.Errorf("expected a pass right after the restore, got %d", runner.calls)
	}

	after, err := store.AttemptByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if after.Terminal || after.RetryCount != 0 {
		t.Errorf("expected fresh retry budget, got %+v", after)
	}

	// A miss does not trigger a pass.
	ok, err = svc.Retry(ctx, queue.KindAttempt, stored.ID)
	if err != nil {
		t.Fatalf("second Retry failed: %v", err)
	}
	if ok {
		t.Fatal("retry of a non-terminal item should be a no-op")
	}
	if runner.calls != 1 {
		t.Errorf("no-op retry must not run a pass, got %d calls", runner.calls)
	}
}

func TestRetryToleratesPassInFlight(t *testing.T) {
	runner := &fakeRunner{err: syncer.ErrPassInProgress}
	svc, store, _ := newTestService(t, runner)
	ctx := context.Background()

	stored := testsupport.NewAttempt(t, store, "child-1", "word-1")
	if err := store.MarkTerminal(ctx, queue.KindAttempt, stored.ID, 0, "gave up"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}

	ok, err := svc.Retry(ctx, queue.KindAttempt, stored.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !ok {
		t.Fatal("expected restore to succeed despite the running pass")
	}
}
