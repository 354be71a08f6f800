package practice

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"spellsync/internal/logging"
	"spellsync/internal/queue"
	"spellsync/internal/services"
	"spellsync/internal/srs"
	"spellsync/internal/syncer"
	"spellsync/internal/telemetry"
	"spellsync/internal/textutil"
)

// PassRunner executes a sync pass. Satisfied by syncer.Orchestrator.
type PassRunner interface {
	RunPass(ctx context.Context) (syncer.PassResult, error)
}

// AttemptInput is the payload for queueing one practice attempt.
type AttemptInput struct {
	ChildID     string `validate:"required"`
	ListID      string `validate:"required"`
	WordID      string `validate:"required"`
	Word        string
	Mode        string `validate:"required"`
	Correct     bool
	FirstTry    bool
	TypedAnswer string
	AudioID     *int64
	DurationMS  int64 `validate:"min=0"`
	StartedAt   time.Time
}

// AudioInput is the payload for queueing one recorded clip.
type AudioInput struct {
	ChildID     string `validate:"required"`
	ListID      string `validate:"required"`
	WordID      string `validate:"required"`
	Payload     []byte `validate:"required"`
	ContentType string
	RecordedAt  time.Time
}

// StatusReport combines authoritative queue counts with the hub's counters.
type StatusReport struct {
	Queue   queue.HealthSummary
	Metrics telemetry.Snapshot
}

// QueueListing holds the live queue contents for display.
type QueueListing struct {
	PendingAttempts []*queue.Attempt
	FailedAttempts  []*queue.Attempt
	PendingAudio    []*queue.Audio
	FailedAudio     []*queue.Audio
}

// Service is the surface the CLI and IPC layers talk to: it validates and
// queues practice records, exposes queue health, and drives manual syncs.
type Service struct {
	store    *queue.Store
	hub      *telemetry.Hub
	runner   PassRunner
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService wires the facade over a store, hub, and optional pass runner.
// A nil runner leaves manual sync unavailable (queue-only mode).
func NewService(store *queue.Store, hub *telemetry.Hub, runner PassRunner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    store,
		hub:      hub,
		runner:   runner,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logging.NewComponentLogger(logger, "practice"),
	}
}

// QueueAttempt validates and persists a practice attempt. For typing-style
// modes with a known expected word, correctness is graded from the normalized
// typed answer; otherwise the caller's Correct flag stands.
func (s *Service) QueueAttempt(ctx context.Context, input AttemptInput) (*queue.Attempt, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, services.Wrap(services.ErrValidation, "practice", "queue attempt", "invalid input", err)
	}
	mode, ok := queue.ParseMode(input.Mode)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "practice", "queue attempt", "unknown mode "+input.Mode, nil)
	}

	correct := input.Correct
	if input.Word != "" && input.TypedAnswer != "" {
		correct = textutil.AnswersMatch(input.Word, input.TypedAnswer)
	}
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	attempt := &queue.Attempt{
		AttemptKey:  uuid.NewString(),
		ChildID:     input.ChildID,
		ListID:      input.ListID,
		WordID:      input.WordID,
		Mode:        mode,
		Correct:     correct,
		FirstTry:    input.FirstTry,
		TypedAnswer: textutil.NormalizeAnswer(input.TypedAnswer),
		AudioID:     input.AudioID,
		DurationMS:  input.DurationMS,
		StartedAt:   startedAt,
	}
	stored, err := s.store.EnqueueAttempt(ctx, attempt)
	if err != nil {
		return nil, err
	}
	s.hub.Increment(telemetry.CounterAttemptsQueued)
	s.logger.Info("queued attempt",
		logging.Int64(logging.FieldItemID, stored.ID),
		logging.String(logging.FieldChildID, stored.ChildID),
		logging.String(logging.FieldWordID, stored.WordID),
		logging.Bool("correct", stored.Correct))
	return stored, nil
}

// QueueAudio validates and persists a recorded pronunciation clip, returning
// the stored record whose ID attempts reference.
func (s *Service) QueueAudio(ctx context.Context, input AudioInput) (*queue.Audio, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, services.Wrap(services.ErrValidation, "practice", "queue audio", "invalid input", err)
	}
	recordedAt := input.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	audio := &queue.Audio{
		DestPath:    AudioDestPath(input.ChildID, input.ListID, input.WordID, recordedAt),
		Payload:     input.Payload,
		ContentType: input.ContentType,
	}
	stored, err := s.store.EnqueueAudio(ctx, audio)
	if err != nil {
		return nil, err
	}
	s.hub.Increment(telemetry.CounterAudioQueued)
	s.logger.Info("queued audio clip",
		logging.Int64(logging.FieldItemID, stored.ID),
		logging.String("dest_path", stored.DestPath))
	return stored, nil
}

// SyncNow runs one sync pass. A pass already in flight is reported as
// in-progress rather than an error condition.
func (s *Service) SyncNow(ctx context.Context) (syncer.PassResult, bool, error) {
	if s.runner == nil {
		return syncer.PassResult{}, false, services.Wrap(services.ErrValidation, "practice", "sync now", "sync not configured", nil)
	}
	result, err := s.runner.RunPass(ctx)
	if errors.Is(err, syncer.ErrPassInProgress) {
		return result, false, nil
	}
	if err != nil {
		return result, true, err
	}
	return result, true, nil
}

// Status reports queue counts and cumulative metrics.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{Queue: counts, Metrics: s.hub.Current()}, nil
}

// List returns the queue contents grouped for display.
func (s *Service) List(ctx context.Context) (QueueListing, error) {
	var listing QueueListing
	var err error
	if listing.PendingAttempts, err = s.store.PendingAttempts(ctx); err != nil {
		return listing, err
	}
	if listing.FailedAttempts, err = s.store.FailedAttempts(ctx); err != nil {
		return listing, err
	}
	if listing.PendingAudio, err = s.store.PendingAudio(ctx); err != nil {
		return listing, err
	}
	listing.FailedAudio, err = s.store.FailedAudio(ctx)
	return listing, err
}

// Retry clears the terminal flag and retry budget of one failed item, then
// kicks off a pass so the restored item does not wait out the sync interval.
// Without a runner (queue-only mode) the item waits for the next daemon pass.
func (s *Service) Retry(ctx context.Context, kind queue.Kind, id int64) (bool, error) {
	restored, err := s.store.RetryItem(ctx, kind, id)
	if err != nil || !restored {
		return restored, err
	}
	if s.runner != nil {
		if _, err := s.runner.RunPass(ctx); err != nil && !errors.Is(err, syncer.ErrPassInProgress) {
			s.logger.Warn("sync pass after retry failed", logging.Error(err))
		}
	}
	return true, nil
}

// ClearFailed drops every terminally failed record from both queues.
func (s *Service) ClearFailed(ctx context.Context) (int64, error) {
	return s.store.ClearFailed(ctx)
}

// Schedule returns the locally mirrored SRS entry for a (child, word) pair, or
// nil when the pair has never synced.
func (s *Service) Schedule(ctx context.Context, childID, wordID string) (*srs.Entry, error) {
	return s.store.SRSEntry(ctx, childID, wordID)
}

// SubscribeMetrics registers a callback invoked synchronously on every metric
// change. The returned function unsubscribes.
func (s *Service) SubscribeMetrics(callback func(telemetry.Snapshot)) func() {
	return s.hub.Subscribe(callback)
}
