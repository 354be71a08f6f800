package telemetry

import (
	"maps"
	"sync"
	"time"
)

// Counter names a monotonically increasing sync metric.
type Counter string

const (
	CounterAttemptsQueued Counter = "attempts_queued"
	CounterAudioQueued    Counter = "audio_queued"
	CounterAttemptsSynced Counter = "attempts_synced"
	CounterAudioSynced    Counter = "audio_synced"
	CounterAttemptsFailed Counter = "attempts_failed"
	CounterAudioFailed    Counter = "audio_failed"
)

// Snapshot is an immutable copy of the hub's state handed to subscribers.
type Snapshot struct {
	Counters         map[Counter]uint64
	LastPassAt       time.Time
	LastPassDuration time.Duration
	Syncing          bool
}

// Hub exposes live sync counters and a subscription channel. It is a
// read-side projection fed by the orchestrator: counters reset on process
// restart, and authoritative pending/failed counts live in the queue store.
type Hub struct {
	mu          sync.Mutex
	counters    map[Counter]uint64
	lastPassAt  time.Time
	lastPass    time.Duration
	syncing     bool
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		counters:    make(map[Counter]uint64),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Increment bumps one counter and notifies subscribers synchronously.
func (h *Hub) Increment(counter Counter) {
	h.mu.Lock()
	h.counters[counter]++
	snapshot, callbacks := h.snapshotLocked()
	h.mu.Unlock()
	notify(snapshot, callbacks)
}

// RecordPass stores the completion time and duration of a sync pass.
func (h *Hub) RecordPass(completedAt time.Time, duration time.Duration) {
	h.mu.Lock()
	h.lastPassAt = completedAt
	h.lastPass = duration
	h.syncing = false
	snapshot, callbacks := h.snapshotLocked()
	h.mu.Unlock()
	notify(snapshot, callbacks)
}

// SetSyncing flags whether a pass is currently in flight.
func (h *Hub) SetSyncing(active bool) {
	h.mu.Lock()
	if h.syncing == active {
		h.mu.Unlock()
		return
	}
	h.syncing = active
	snapshot, callbacks := h.snapshotLocked()
	h.mu.Unlock()
	notify(snapshot, callbacks)
}

// Subscribe registers a callback invoked synchronously on every mutation.
// The returned function removes the subscription.
func (h *Hub) Subscribe(callback func(Snapshot)) func() {
	if callback == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.subscribers[id] = callback
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

// Current returns the present snapshot without mutating anything.
func (h *Hub) Current() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	snapshot, _ := h.snapshotLocked()
	return snapshot
}

func (h *Hub) snapshotLocked() (Snapshot, []func(Snapshot)) {
	counters := make(map[Counter]uint64, len(h.counters))
	maps.Copy(counters, h.counters)
	snapshot := Snapshot{
		Counters:         counters,
		LastPassAt:       h.lastPassAt,
		LastPassDuration: h.lastPass,
		Syncing:          h.syncing,
	}
	callbacks := make([]func(Snapshot), 0, len(h.subscribers))
	for _, cb := range h.subscribers {
		callbacks = append(callbacks, cb)
	}
	return snapshot, callbacks
}

func notify(snapshot Snapshot, callbacks []func(Snapshot)) {
	for _, cb := range callbacks {
		cb(snapshot)
	}
}
