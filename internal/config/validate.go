package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints (tag-based) and domain rules that
// tags cannot express.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("config validation: paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		return fmt.Errorf("config validation: paths.socket_path must not be empty")
	}
	if c.Sync.BackoffMaxSeconds < c.Sync.BackoffBaseSeconds {
		return fmt.Errorf("config validation: sync.backoff_max_seconds (%d) must be >= sync.backoff_base_seconds (%d)",
			c.Sync.BackoffMaxSeconds, c.Sync.BackoffBaseSeconds)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config validation: logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Storage.Endpoint != "" && strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("config validation: storage.bucket is required when storage.endpoint is set")
	}
	return nil
}
