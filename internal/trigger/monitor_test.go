package trigger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spellsync/internal/config"
)

type scriptedProber struct {
	mu      sync.Mutex
	results []error
}

func (p *scriptedProber) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.results) == 0 {
		return nil
	}
	result := p.results[0]
	if len(p.results) > 1 {
		p.results = p.results[1:]
	}
	return result
}

type syncRecorder struct {
	mu      sync.Mutex
	reasons []Reason
	fired   chan Reason
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{fired: make(chan Reason, 16)}
}

func (r *syncRecorder) fn(ctx context.Context, reason Reason) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	r.fired <- reason
}

func (r *syncRecorder) waitFor(t *testing.T, want Reason) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-r.fired:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q trigger", want)
		}
	}
}

func testSyncConfig() config.Sync {
	return config.Sync{
		MaxRetries:           5,
		BackoffBaseSeconds:   2,
		BackoffMaxSeconds:    60,
		CallTimeoutSeconds:   1,
		SyncIntervalSeconds:  3600,
		ProbeIntervalSeconds: 1,
	}
}

func TestMonitorFiresOnStartupWhenOnline(t *testing.T) {
	recorder := newSyncRecorder()
	monitor := NewMonitor(testSyncConfig(), &scriptedProber{}, recorder.fn, nil)
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer monitor.Stop()

	recorder.waitFor(t, ReasonStartup)
	if !monitor.Online() {
		t.Error("expected monitor online after successful probe")
	}
}

func TestMonitorFiresOnOfflineToOnlineEdge(t *testing.T) {
	prober := &scriptedProber{results: []error{
		errors.New("no route"),
		nil,
	}}
	recorder := newSyncRecorder()
	monitor := NewMonitor(testSyncConfig(), prober, recorder.fn, nil)
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer monitor.Stop()

	recorder.waitFor(t, ReasonConnectivity)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	for _, reason := range recorder.reasons {
		if reason == ReasonStartup {
			t.Error("startup trigger must not fire while offline")
		}
	}
}

func TestMonitorStaysQuietWhileOffline(t *testing.T) {
	prober := &scriptedProber{results: []error{errors.New("no route")}}
	recorder := newSyncRecorder()
	monitor := NewMonitor(testSyncConfig(), prober, recorder.fn, nil)
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	monitor.Stop()

	if monitor.Online() {
		t.Error("expected monitor offline")
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.reasons) != 0 {
		t.Errorf("expected no triggers while offline, got %v", recorder.reasons)
	}
}

func TestMonitorDoubleStartRejected(t *testing.T) {
	monitor := NewMonitor(testSyncConfig(), &scriptedProber{}, func(context.Context, Reason) {}, nil)
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer monitor.Stop()

	if err := monitor.Start(context.Background()); err == nil {
		t.Error("expected second Start to fail")
	}
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	monitor := NewMonitor(testSyncConfig(), &scriptedProber{}, func(context.Context, Reason) {}, nil)
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	monitor.Stop()
	monitor.Stop()
}
