package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"spellsync/internal/config"
	"spellsync/internal/remote"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRemoteAPI verifies the practice API is reachable with the configured
// credentials. A single attempt with a short timeout; being offline here is
// informational, not an error, since the queue holds records either way.
func CheckRemoteAPI(ctx context.Context, cfg config.Remote) Result {
	const name = "Practice API"

	if strings.TrimSpace(cfg.APIToken) == "" {
		return Result{Name: name, Detail: "API token missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := remote.NewAPIClient(cfg)
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckObjectStorage verifies the audio storage config is complete enough to
// build a client. It does not touch the bucket; uploads surface real errors
// through the sync retry path.
func CheckObjectStorage(cfg config.Storage) Result {
	const name = "Audio storage"

	if strings.TrimSpace(cfg.Bucket) == "" {
		return Result{Name: name, Detail: "bucket missing"}
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return Result{Name: name, Detail: "credentials missing"}
	}
	if _, err := remote.NewAudioUploader(cfg); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid config (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %s configured", cfg.Bucket)}
}
