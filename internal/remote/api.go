package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spellsync/internal/config"
	"spellsync/internal/services"
)

const defaultHTTPTimeout = 5 * time.Second

// AttemptRecord is the payload accepted by the remote attempt-insert API.
// AttemptKey is the stable logical identity: the remote store treats duplicate
// submission of the same key as a no-op, which makes retries safe.
type AttemptRecord struct {
	AttemptKey  string    `json:"attempt_key"`
	ChildID     string    `json:"child_id"`
	ListID      string    `json:"list_id"`
	WordID      string    `json:"word_id"`
	Mode        string    `json:"mode"`
	Correct     bool      `json:"correct"`
	FirstTry    bool      `json:"first_try"`
	TypedAnswer *string   `json:"typed_answer,omitempty"`
	AudioPath   *string   `json:"audio_path,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	StartedAt   time.Time `json:"started_at"`
}

// ScheduleRecord is the payload for the SRS upsert API, keyed by (child, word).
type ScheduleRecord struct {
	ChildID      string    `json:"child_id"`
	WordID       string    `json:"word_id"`
	Ease         float64   `json:"ease"`
	IntervalDays int       `json:"interval_days"`
	Due          time.Time `json:"due_date"`
	Reps         int       `json:"reps"`
	Lapses       int       `json:"lapses"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// APIClient talks to the practice API over HTTP with a bearer token.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIOption customizes the client.
type APIOption func(*APIClient)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) APIOption {
	return func(c *APIClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewAPIClient constructs a client from the remote config section.
func NewAPIClient(cfg config.Remote, opts ...APIOption) *APIClient {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &APIClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.APIToken),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// InsertAttempt submits one confirmed practice attempt.
func (c *APIClient) InsertAttempt(ctx context.Context, record AttemptRecord) error {
	return c.send(ctx, http.MethodPost, "/attempts", "insert attempt", record)
}

// UpsertSchedule writes the full SRS entry for a (child, word) pair. The
// endpoint is idempotent per call, so retrying a failed attempt sync cannot
// double-apply a schedule update.
func (c *APIClient) UpsertSchedule(ctx context.Context, record ScheduleRecord) error {
	return c.send(ctx, http.MethodPut, "/srs", "upsert schedule", record)
}

func (c *APIClient) send(ctx context.Context, method, path, op string, payload any) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrValidation, "remote", op, "base URL not configured", nil)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrValidation, "remote", op, "encode body", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return services.Wrap(services.ErrValidation, "remote", op, "new request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(op, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Ping issues a cheap reachability check against the API root. Used by the
// connectivity probe and preflight.
func (c *APIClient) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrValidation, "remote", "ping", "base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("remote ping: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport("ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
