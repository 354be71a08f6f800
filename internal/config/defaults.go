package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultStateDir(),
			LogDir:     filepath.Join(defaultStateDir(), "logs"),
			SocketPath: filepath.Join(defaultStateDir(), "spellsyncd.sock"),
		},
		Remote: Remote{
			BaseURL:        "",
			APIToken:       "",
			TimeoutSeconds: 5,
		},
		Storage: Storage{
			Endpoint: "",
			Bucket:   "practice-audio",
			UseSSL:   true,
		},
		Sync: Sync{
			MaxRetries:           5,
			BackoffBaseSeconds:   2,
			BackoffMaxSeconds:    60,
			CallTimeoutSeconds:   5,
			SyncIntervalSeconds:  300,
			ProbeIntervalSeconds: 15,
			ProbeURL:             "",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "spellsync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "spellsync")
	}
	return filepath.Join(home, ".local", "state", "spellsync")
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("normalize data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("normalize log_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("normalize socket_path: %w", err)
	}

	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	c.Remote.APIToken = strings.TrimSpace(c.Remote.APIToken)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Sync.ProbeURL = strings.TrimSpace(c.Sync.ProbeURL)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	// The reachability probe defaults to the remote API itself.
	if c.Sync.ProbeURL == "" && c.Remote.BaseURL != "" {
		c.Sync.ProbeURL = c.Remote.BaseURL
	}
	return nil
}
