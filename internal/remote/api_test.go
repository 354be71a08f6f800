package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spellsync/internal/config"
	"spellsync/internal/services"
)

func testRemote(baseURL string) config.Remote {
	return config.Remote{
		BaseURL:        baseURL,
		APIToken:       "token-123",
		TimeoutSeconds: 2,
	}
}

func TestInsertAttemptSendsAuthorizedRequest(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody AttemptRecord
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewAPIClient(testRemote(server.URL))
	record := AttemptRecord{
		AttemptKey: "key-1",
		ChildID:    "child-1",
		ListID:     "list-1",
		WordID:     "word-1",
		Mode:       "typing",
		Correct:    true,
		FirstTry:   true,
		DurationMS: 4200,
		StartedAt:  time.Now().UTC(),
	}
	if err := client.InsertAttempt(context.Background(), record); err != nil {
		t.Fatalf("InsertAttempt failed: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if gotPath != "/attempts" {
		t.Errorf("expected /attempts path, got %q", gotPath)
	}
	if gotBody.AttemptKey != "key-1" || gotBody.WordID != "word-1" {
		t.Errorf("unexpected body: %+v", gotBody)
	}
}

func TestUpsertSchedulePath(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAPIClient(testRemote(server.URL))
	record := ScheduleRecord{ChildID: "child-1", WordID: "word-1", Ease: 2.6, IntervalDays: 1}
	if err := client.UpsertSchedule(context.Background(), record); err != nil {
		t.Fatalf("UpsertSchedule failed: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/srs" {
		t.Errorf("expected PUT /srs, got %s %s", gotMethod, gotPath)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		marker    error
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, services.ErrTransient, true},
		{"rate limited", http.StatusTooManyRequests, services.ErrTransient, true},
		{"unauthorized", http.StatusUnauthorized, services.ErrAuth, false},
		{"forbidden", http.StatusForbidden, services.ErrAuth, false},
		{"rejected payload", http.StatusUnprocessableEntity, services.ErrValidation, false},
		{"missing endpoint", http.StatusNotFound, services.ErrNotFound, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewAPIClient(testRemote(server.URL))
			err := client.InsertAttempt(context.Background(), AttemptRecord{AttemptKey: "key"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.marker) {
				t.Errorf("expected marker %v, got %v", tc.marker, err)
			}
			if services.IsRetryable(err) != tc.retryable {
				t.Errorf("expected retryable=%v for status %d", tc.retryable, tc.status)
			}
		})
	}
}

func TestTransportTimeoutIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewAPIClient(testRemote(server.URL), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	err := client.InsertAttempt(context.Background(), AttemptRecord{AttemptKey: "key"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !services.IsRetryable(err) {
		t.Errorf("expected timeout to be retryable, got %v", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAPIClient(testRemote(server.URL))
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	server.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected ping against closed server to fail")
	}
}
