package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Probe checks reachability of an arbitrary URL. Any HTTP response counts as
// reachable; only transport failures mean offline.
type Probe struct {
	url        string
	httpClient *http.Client
}

// NewProbe builds a connectivity probe for the given URL.
func NewProbe(url string, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Probe{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ping issues a HEAD request against the probe URL.
func (p *Probe) Ping(ctx context.Context) error {
	if p.url == "" {
		return fmt.Errorf("probe: no URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("probe: new request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return classifyTransport("probe", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
