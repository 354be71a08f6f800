package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spellsync/internal/config"
	"spellsync/internal/logging"
	"spellsync/internal/queue"
	"spellsync/internal/remote"
	"spellsync/internal/services"
	"spellsync/internal/srs"
	"spellsync/internal/telemetry"
)

// ErrPassInProgress is returned when a sync pass is requested while another
// pass is still draining the queue. Triggers coalesce rather than stack.
var ErrPassInProgress = errors.New("sync pass already in progress")

// APIClient covers the remote calls a pass makes for attempts.
type APIClient interface {
	InsertAttempt(ctx context.Context, record remote.AttemptRecord) error
	UpsertSchedule(ctx context.Context, record remote.ScheduleRecord) error
}

// Uploader covers audio clip storage.
type Uploader interface {
	Upload(ctx context.Context, destPath string, payload []byte, contentType string) (string, error)
}

// Clock abstracts wall time so backoff scheduling is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Settings holds retry and timeout policy for a pass.
type Settings struct {
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	CallTimeout time.Duration
}

// SettingsFromConfig converts the sync config section into pass settings.
func SettingsFromConfig(cfg config.Sync) Settings {
	return Settings{
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: time.Duration(cfg.BackoffBaseSeconds) * time.Second,
		BackoffMax:  time.Duration(cfg.BackoffMaxSeconds) * time.Second,
		CallTimeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
	}
}

// PassResult summarizes what a single sync pass accomplished.
type PassResult struct {
	AudioSynced     int
	AudioFailed     int
	AttemptsSynced  int
	AttemptsFailed  int
	AttemptsSkipped int
	Duration        time.Duration
}

// Orchestrator drains the local queue into the remote API and object storage.
// Audio clips upload before the attempts that reference them, and a record is
// removed from the local queue only after the remote confirms it.
type Orchestrator struct {
	store    *queue.Store
	api      APIClient
	uploader Uploader
	hub      *telemetry.Hub
	settings Settings
	clock    Clock
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithClock injects a deterministic clock (used in tests).
func WithClock(clock Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New builds an orchestrator over the given store and remote clients.
func New(store *queue.Store, api APIClient, uploader Uploader, hub *telemetry.Hub, settings Settings, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = 5
	}
	if settings.BackoffBase <= 0 {
		settings.BackoffBase = 2 * time.Second
	}
	if settings.BackoffMax < settings.BackoffBase {
		settings.BackoffMax = settings.BackoffBase
	}
	o := &Orchestrator{
		store:    store,
		api:      api,
		uploader: uploader,
		hub:      hub,
		settings: settings,
		clock:    systemClock{},
		logger:   logging.NewComponentLogger(logger, "syncer"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunPass executes one full drain of the queue. Only one pass runs at a time;
// a second caller gets ErrPassInProgress instead of a concurrent drain.
func (o *Orchestrator) RunPass(ctx context.Context) (PassResult, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return PassResult{}, ErrPassInProgress
	}
	o.running = true
	o.mu.Unlock()

	started := o.clock.Now()
	o.hub.SetSyncing(true)
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	result, err := o.pass(ctx)
	result.Duration = o.clock.Now().Sub(started)
	o.hub.RecordPass(o.clock.Now(), result.Duration)
	if err != nil {
		o.logger.Warn("sync pass aborted", logging.Error(err))
		return result, err
	}
	o.logger.Info("sync pass complete",
		logging.Int("audio_synced", result.AudioSynced),
		logging.Int("attempts_synced", result.AttemptsSynced),
		logging.Int("attempts_skipped", result.AttemptsSkipped),
		logging.Duration("duration", result.Duration))
	return result, nil
}

func (o *Orchestrator) pass(ctx context.Context) (PassResult, error) {
	var result PassResult

	if err := o.drainAudio(ctx, &result); err != nil {
		return result, err
	}
	if err := o.drainAttempts(ctx, &result); err != nil {
		return result, err
	}
	if removed, err := o.store.RemoveSyncedAudio(ctx); err != nil {
		return result, err
	} else if removed > 0 {
		o.logger.Debug("released synced audio payloads", logging.Int64("count", removed))
	}
	return result, nil
}

func (o *Orchestrator) drainAudio(ctx context.Context, result *PassResult) error {
	if o.uploader == nil {
		// No storage configured. Clips stay queued and attempts that
		// reference them are skipped without consuming retry budget.
		return nil
	}
	clips, err := o.store.DueAudio(ctx, o.clock.Now())
	if err != nil {
		return err
	}
	for _, clip := range clips {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.syncAudio(ctx, clip); err != nil {
			if abort := o.recordAudioFailure(ctx, clip, err, result); abort != nil {
				return abort
			}
			continue
		}
		result.AudioSynced++
		o.hub.Increment(telemetry.CounterAudioSynced)
	}
	return nil
}

func (o *Orchestrator) syncAudio(ctx context.Context, clip *queue.Audio) error {
	if err := o.store.MarkSyncing(ctx, queue.KindAudio, clip.ID); err != nil {
		return err
	}
	callCtx, cancel := o.callContext(ctx)
	remotePath, err := o.uploader.Upload(callCtx, clip.DestPath, clip.Payload, clip.ContentType)
	cancel()
	if err != nil {
		return err
	}
	return o.store.MarkAudioSynced(ctx, clip.ID, remotePath)
}

func (o *Orchestrator) drainAttempts(ctx context.Context, result *PassResult) error {
	attempts, err := o.store.DueAttempts(ctx, o.clock.Now())
	if err != nil {
		return err
	}
	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		audioPath, status, err := o.resolveAudio(ctx, attempt)
		if err != nil {
			return err
		}
		switch status {
		case audioWaiting:
			result.AttemptsSkipped++
			continue
		case audioDead:
			if err := o.markDependentTerminal(ctx, attempt); err != nil {
				return err
			}
			result.AttemptsFailed++
			continue
		}
		if err := o.syncAttempt(ctx, attempt, audioPath); err != nil {
			if abort := o.recordAttemptFailure(ctx, attempt, err, result); abort != nil {
				return abort
			}
			continue
		}
		result.AttemptsSynced++
		o.hub.Increment(telemetry.CounterAttemptsSynced)
	}
	return nil
}

// audioStatus classifies an attempt's audio dependency for one pass.
type audioStatus int

const (
	// audioReady: no dependency, or the clip has a confirmed remote path.
	audioReady audioStatus = iota
	// audioWaiting: the clip is still queued; skip the attempt this pass.
	audioWaiting
	// audioDead: the clip failed terminally; the attempt can never upload.
	audioDead
)

// resolveAudio checks an attempt's audio dependency. An attempt uploads only
// after its clip has a confirmed remote path; until then it is skipped without
// consuming retry budget. A terminally failed clip dooms the attempt instead.
func (o *Orchestrator) resolveAudio(ctx context.Context, attempt *queue.Attempt) (string, audioStatus, error) {
	if attempt.AudioID == nil {
		return "", audioReady, nil
	}
	clip, err := o.store.AudioByID(ctx, *attempt.AudioID)
	if err != nil {
		return "", audioWaiting, err
	}
	if clip == nil {
		// Referenced clip is gone; upload the attempt without it rather than
		// holding the record forever.
		o.logger.Warn("attempt references missing audio",
			logging.Int64(logging.FieldItemID, attempt.ID),
			logging.Int64("audio_id", *attempt.AudioID))
		return "", audioReady, nil
	}
	if clip.Terminal {
		return "", audioDead, nil
	}
	if clip.State != queue.StateSynced || clip.RemotePath == "" {
		return "", audioWaiting, nil
	}
	return clip.RemotePath, audioReady, nil
}

// markDependentTerminal fails an attempt whose audio clip already died. The
// cascade at clip failure time covers attempts that existed then; this covers
// one enqueued afterwards, which would otherwise be skipped on every pass.
func (o *Orchestrator) markDependentTerminal(ctx context.Context, attempt *queue.Attempt) error {
	o.hub.Increment(telemetry.CounterAttemptsFailed)
	o.logger.Error("attempt references terminally failed audio",
		logging.Int64(logging.FieldItemID, attempt.ID),
		logging.Int64("audio_id", *attempt.AudioID))
	reason := fmt.Sprintf("audio clip %d failed terminally", *attempt.AudioID)
	return o.store.MarkTerminal(ctx, queue.KindAttempt, attempt.ID, attempt.RetryCount, reason)
}

func (o *Orchestrator) syncAttempt(ctx context.Context, attempt *queue.Attempt, audioPath string) error {
	if err := o.store.MarkSyncing(ctx, queue.KindAttempt, attempt.ID); err != nil {
		return err
	}
	record := remote.AttemptRecord{
		AttemptKey: attempt.AttemptKey,
		ChildID:    attempt.ChildID,
		ListID:     attempt.ListID,
		WordID:     attempt.WordID,
		Mode:       string(attempt.Mode),
		Correct:    attempt.Correct,
		FirstTry:   attempt.FirstTry,
		DurationMS: attempt.DurationMS,
		StartedAt:  attempt.StartedAt,
	}
	if attempt.TypedAnswer != "" {
		answer := attempt.TypedAnswer
		record.TypedAnswer = &answer
	}
	if audioPath != "" {
		path := audioPath
		record.AudioPath = &path
	}

	callCtx, cancel := o.callContext(ctx)
	err := o.api.InsertAttempt(callCtx, record)
	cancel()
	if err != nil {
		return err
	}

	if err := o.updateSchedule(ctx, attempt); err != nil {
		return err
	}
	if err := o.store.MarkSynced(ctx, queue.KindAttempt, attempt.ID); err != nil {
		return err
	}
	// Confirmed remote, the local record has served its purpose.
	return o.store.RemoveAttempt(ctx, attempt.ID)
}

// updateSchedule advances the SRS entry for the attempt's word and pushes the
// result to the remote, mirroring it locally afterwards. If the push fails the
// whole attempt is retried; the attempt key keeps the re-insert harmless.
func (o *Orchestrator) updateSchedule(ctx context.Context, attempt *queue.Attempt) error {
	prev, err := o.store.SRSEntry(ctx, attempt.ChildID, attempt.WordID)
	if err != nil {
		return err
	}
	outcome := srs.OutcomeFor(attempt.Correct, attempt.FirstTry)
	next := srs.Transition(prev, outcome, o.clock.Now())

	record := remote.ScheduleRecord{
		ChildID:      attempt.ChildID,
		WordID:       attempt.WordID,
		Ease:         next.Ease,
		IntervalDays: next.IntervalDays,
		Due:          next.Due,
		Reps:         next.Reps,
		Lapses:       next.Lapses,
		UpdatedAt:    next.UpdatedAt,
	}
	callCtx, cancel := o.callContext(ctx)
	err = o.api.UpsertSchedule(callCtx, record)
	cancel()
	if err != nil {
		return err
	}
	return o.store.PutSRSEntry(ctx, attempt.ChildID, attempt.WordID, next)
}

// recordAudioFailure applies the retry policy to one failed upload. The
// failure counter moves only when the clip goes terminal; transient failures
// show up in the pass result but not the cumulative metric.
func (o *Orchestrator) recordAudioFailure(ctx context.Context, clip *queue.Audio, cause error, result *PassResult) error {
	if abort := passAbort(ctx, cause); abort != nil {
		return abort
	}
	result.AudioFailed++
	retries := clip.RetryCount + 1
	switch {
	case !services.IsRetryable(cause):
		// No budget consumed; the stored count stays where it was.
		return o.markAudioTerminal(ctx, clip, clip.RetryCount, cause)
	case retries >= o.settings.MaxRetries:
		return o.markAudioTerminal(ctx, clip, retries, cause)
	}
	next := o.clock.Now().Add(o.backoffDelay(retries))
	o.logger.Warn("audio upload failed, will retry",
		logging.Int64(logging.FieldItemID, clip.ID),
		logging.Int(logging.FieldRetryCount, retries),
		logging.Error(cause))
	return o.store.MarkFailed(ctx, queue.KindAudio, clip.ID, retries, cause.Error(), next)
}

func (o *Orchestrator) markAudioTerminal(ctx context.Context, clip *queue.Audio, retryCount int, cause error) error {
	o.hub.Increment(telemetry.CounterAudioFailed)
	o.logger.Error("audio upload failed terminally",
		logging.Int64(logging.FieldItemID, clip.ID),
		logging.Error(cause))
	if err := o.store.MarkTerminal(ctx, queue.KindAudio, clip.ID, retryCount, cause.Error()); err != nil {
		return err
	}
	reason := fmt.Sprintf("audio clip %d failed terminally", clip.ID)
	cascaded, err := o.store.CascadeAudioTerminal(ctx, clip.ID, reason)
	if err != nil {
		return err
	}
	if cascaded > 0 {
		o.logger.Warn("marked dependent attempts terminal",
			logging.Int64("audio_id", clip.ID),
			logging.Int64("count", cascaded))
	}
	return nil
}

func (o *Orchestrator) recordAttemptFailure(ctx context.Context, attempt *queue.Attempt, cause error, result *PassResult) error {
	if abort := passAbort(ctx, cause); abort != nil {
		return abort
	}
	result.AttemptsFailed++
	retries := attempt.RetryCount + 1
	switch {
	case !services.IsRetryable(cause):
		return o.markAttemptTerminal(ctx, attempt, attempt.RetryCount, cause)
	case retries >= o.settings.MaxRetries:
		return o.markAttemptTerminal(ctx, attempt, retries, cause)
	}
	next := o.clock.Now().Add(o.backoffDelay(retries))
	o.logger.Warn("attempt sync failed, will retry",
		logging.Int64(logging.FieldItemID, attempt.ID),
		logging.Int(logging.FieldRetryCount, retries),
		logging.Error(cause))
	return o.store.MarkFailed(ctx, queue.KindAttempt, attempt.ID, retries, cause.Error(), next)
}

func (o *Orchestrator) markAttemptTerminal(ctx context.Context, attempt *queue.Attempt, retryCount int, cause error) error {
	o.hub.Increment(telemetry.CounterAttemptsFailed)
	o.logger.Error("attempt sync failed terminally",
		logging.Int64(logging.FieldItemID, attempt.ID),
		logging.String(logging.FieldWordID, attempt.WordID),
		logging.Error(cause))
	return o.store.MarkTerminal(ctx, queue.KindAttempt, attempt.ID, retryCount, cause.Error())
}

// backoffDelay doubles per retry from the configured base, capped.
func (o *Orchestrator) backoffDelay(retryCount int) time.Duration {
	delay := o.settings.BackoffBase
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= o.settings.BackoffMax {
			return o.settings.BackoffMax
		}
	}
	if delay > o.settings.BackoffMax {
		return o.settings.BackoffMax
	}
	return delay
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.settings.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.settings.CallTimeout)
}

// passAbort reports conditions that should end the whole pass instead of
// being charged against one item: cancellation and local storage failure.
func passAbort(ctx context.Context, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if services.IsFatal(cause) {
		return cause
	}
	return nil
}
