package preflight

import (
	"context"

	"spellsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the applicable preflight checks for the given config.
// Local checks always run; remote checks run only when the corresponding
// endpoint is configured, since the app is expected to work offline.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Remote.BaseURL != "" {
		results = append(results, CheckRemoteAPI(ctx, cfg.Remote))
	}
	if cfg.Storage.Endpoint != "" {
		results = append(results, CheckObjectStorage(cfg.Storage))
	}

	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
