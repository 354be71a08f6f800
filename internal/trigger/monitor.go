package trigger

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"spellsync/internal/config"
	"spellsync/internal/logging"
)

// Reason identifies what started a sync pass.
type Reason string

const (
	ReasonConnectivity Reason = "connectivity_restored"
	ReasonInterval     Reason = "interval"
	ReasonManual       Reason = "manual"
	ReasonStartup      Reason = "startup"
)

// Prober checks whether the remote is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// SyncFunc is invoked when a trigger fires. Implementations are expected to
// coalesce overlapping requests themselves.
type SyncFunc func(ctx context.Context, reason Reason)

// Monitor watches connectivity and drives periodic syncs. An offline-to-online
// transition fires a sync immediately; while online, a sync also fires on the
// configured interval. Probe failures only flip the online flag, they are not
// treated as errors.
type Monitor struct {
	prober Prober
	sync   SyncFunc
	logger *slog.Logger

	probeInterval time.Duration
	syncInterval  time.Duration
	probeTimeout  time.Duration

	mu          sync.Mutex
	running     bool
	online      bool
	onlineKnown bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor builds a connectivity monitor from the sync config section.
func NewMonitor(cfg config.Sync, prober Prober, syncFn SyncFunc, logger *slog.Logger) *Monitor {
	if prober == nil || syncFn == nil {
		return nil
	}

	probe := time.Duration(cfg.ProbeIntervalSeconds) * time.Second
	if probe <= 0 {
		probe = 15 * time.Second
	}
	interval := time.Duration(cfg.SyncIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	probeTimeout := time.Duration(cfg.CallTimeoutSeconds) * time.Second
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}

	if logger == nil {
		logger = logging.NewNop()
	}

	return &Monitor{
		prober:        prober,
		sync:          syncFn,
		logger:        logging.NewComponentLogger(logger, "trigger"),
		probeInterval: probe,
		syncInterval:  interval,
		probeTimeout:  probeTimeout,
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("connectivity monitor unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("connectivity monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop()
	return nil
}

func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	m.probe()

	probeTicker := time.NewTicker(m.probeInterval)
	defer probeTicker.Stop()
	syncTicker := time.NewTicker(m.syncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-probeTicker.C:
			m.probe()
		case <-syncTicker.C:
			if m.Online() {
				m.sync(m.ctx, ReasonInterval)
			}
		}
	}
}

func (m *Monitor) probe() {
	ctx := m.ctx
	if ctx == nil {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.prober.Ping(probeCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	online := err == nil
	m.mu.Lock()
	wasOnline := m.online
	wasKnown := m.onlineKnown
	m.online = online
	m.onlineKnown = true
	m.mu.Unlock()

	switch {
	case online && (!wasKnown || !wasOnline):
		m.logger.Info("remote reachable",
			logging.String(logging.FieldEventType, "connectivity_online"))
		reason := ReasonConnectivity
		if !wasKnown {
			reason = ReasonStartup
		}
		m.sync(ctx, reason)
	case !online && (wasKnown && wasOnline):
		m.logger.Warn("remote unreachable, queue will hold",
			logging.Error(err),
			logging.String(logging.FieldEventType, "connectivity_offline"))
	}
}
