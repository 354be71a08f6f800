package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"spellsync/internal/config"
	"spellsync/internal/logging"
	"spellsync/internal/practice"
	"spellsync/internal/queue"
	"spellsync/internal/remote"
	"spellsync/internal/syncer"
	"spellsync/internal/telemetry"
	"spellsync/internal/trigger"
)

// Daemon owns the background sync machinery and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *queue.Store
	hub          *telemetry.Hub
	service      *practice.Service
	orchestrator *syncer.Orchestrator
	monitor      *trigger.Monitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Online       bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Report       practice.StatusReport
}

// New assembles the daemon: remote clients, orchestrator, connectivity
// monitor, and the practice service the IPC layer exposes.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := telemetry.NewHub()
	apiClient := remote.NewAPIClient(cfg.Remote)

	var uploader syncer.Uploader
	if cfg.Storage.Endpoint != "" {
		up, err := remote.NewAudioUploader(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init audio uploader: %w", err)
		}
		uploader = up
	}

	orchestrator := syncer.New(store, apiClient, uploader, hub,
		syncer.SettingsFromConfig(cfg.Sync), logger)

	d := &Daemon{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "daemon"),
		store:        store,
		hub:          hub,
		orchestrator: orchestrator,
		service:      practice.NewService(store, hub, orchestrator, logger),
		lockPath:     cfg.LockPath(),
		lock:         flock.New(cfg.LockPath()),
	}
	var prober trigger.Prober = apiClient
	if cfg.Sync.ProbeURL != "" && cfg.Sync.ProbeURL != cfg.Remote.BaseURL {
		prober = remote.NewProbe(cfg.Sync.ProbeURL,
			time.Duration(cfg.Sync.CallTimeoutSeconds)*time.Second)
	}
	d.monitor = trigger.NewMonitor(cfg.Sync, prober, d.triggeredSync, logger)
	return d, nil
}

// Start acquires the daemon lock and begins connectivity monitoring.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another spellsync daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.monitor.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start connectivity monitor: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("spellsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background syncing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("spellsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Service returns the practice facade IPC handlers delegate to.
func (d *Daemon) Service() *practice.Service {
	return d.service
}

// Status reports runtime and queue state.
func (d *Daemon) Status(ctx context.Context) Status {
	report, err := d.service.Status(ctx)
	if err != nil {
		d.logger.Warn("status query failed", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		Online:       d.monitor.Online(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Report:       report,
	}
}

func (d *Daemon) triggeredSync(ctx context.Context, reason trigger.Reason) {
	result, err := d.orchestrator.RunPass(ctx)
	if errors.Is(err, syncer.ErrPassInProgress) {
		return
	}
	if err != nil {
		d.logger.Warn("triggered sync failed",
			logging.String(logging.FieldEventType, "sync_pass_failed"),
			logging.String("reason", string(reason)),
			logging.Error(err))
		return
	}
	if result.AudioSynced+result.AttemptsSynced+result.AttemptsFailed+result.AudioFailed > 0 {
		d.logger.Info("triggered sync pass finished",
			logging.String("reason", string(reason)),
			logging.Int("attempts_synced", result.AttemptsSynced),
			logging.Int("audio_synced", result.AudioSynced))
	}
}
