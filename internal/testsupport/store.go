package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"spellsync/internal/config"
	"spellsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewAttempt enqueues a practice attempt for tests using the provided store.
func NewAttempt(t testing.TB, store *queue.Store, childID, wordID string, opts ...func(*queue.Attempt)) *queue.Attempt {
	t.Helper()

	attempt := &queue.Attempt{
		AttemptKey: uuid.NewString(),
		ChildID:    childID,
		ListID:     "list-1",
		WordID:     wordID,
		Mode:       queue.ModeTyping,
		Correct:    true,
		FirstTry:   true,
		DurationMS: 4200,
		StartedAt:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(attempt)
	}

	stored, err := store.EnqueueAttempt(context.Background(), attempt)
	if err != nil {
		t.Fatalf("store.EnqueueAttempt: %v", err)
	}
	return stored
}

// NewAudio enqueues an audio clip for tests using the provided store.
func NewAudio(t testing.TB, store *queue.Store, destPath string) *queue.Audio {
	t.Helper()

	audio, err := store.EnqueueAudio(context.Background(), &queue.Audio{
		DestPath: destPath,
		Payload:  []byte("riff-audio-bytes"),
	})
	if err != nil {
		t.Fatalf("store.EnqueueAudio: %v", err)
	}
	return audio
}
