package testsupport

import (
	"path/filepath"
	"testing"

	"spellsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "spellsyncd.sock")
	cfg.Remote.BaseURL = "http://127.0.0.1:0"
	cfg.Sync.ProbeURL = cfg.Remote.BaseURL

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithRemote points the test config at a live test server.
func WithRemote(baseURL, token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Remote.BaseURL = baseURL
		cfg.Remote.APIToken = token
		cfg.Sync.ProbeURL = baseURL
	}
}

// WithBackoff overrides the retry tuning on the test config.
func WithBackoff(maxRetries, baseSeconds, maxSeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.MaxRetries = maxRetries
		cfg.Sync.BackoffBaseSeconds = baseSeconds
		cfg.Sync.BackoffMaxSeconds = maxSeconds
	}
}
