package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"spellsync/internal/services"
)

// classifyStatus maps an HTTP status to the service error taxonomy so the
// sync orchestrator can decide between retrying and marking terminal.
func classifyStatus(op string, status int, body string) error {
	detail := fmt.Sprintf("status %d", status)
	if body != "" {
		detail = fmt.Sprintf("status %d: %s", status, body)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "remote", op, detail, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "remote", op, detail, nil)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, "remote", op, detail, nil)
	case status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "remote", op, detail, nil)
	default:
		// Remaining 4xx responses mean the payload itself was rejected.
		return services.Wrap(services.ErrValidation, "remote", op, detail, nil)
	}
}

// classifyTransport maps request transport failures. Timeouts and network
// errors are retryable; context cancellation passes through untouched so
// shutdown is not misread as a sync failure.
func classifyTransport(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "remote", op, "request timed out", err)
	}
	return services.Wrap(services.ErrUnavailable, "remote", op, "request failed", err)
}
