package services_test

import (
	"errors"
	"strings"
	"testing"

	"spellsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "syncer", "upload audio", "put failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"syncer", "upload audio", "put failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "remote", "insert", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestIsRetryableClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"transient", services.Wrap(services.ErrTransient, "remote", "insert", "503", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "remote", "insert", "deadline", nil), true},
		{"unavailable", services.Wrap(services.ErrUnavailable, "remote", "insert", "refused", nil), true},
		{"auth", services.Wrap(services.ErrAuth, "remote", "insert", "401", nil), false},
		{"validation", services.Wrap(services.ErrValidation, "remote", "insert", "422", nil), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetryable(tc.err); got != tc.retryable {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.retryable)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	err := services.Wrap(services.ErrStorage, "queue", "enqueue", "disk full", nil)
	if !services.IsFatal(err) {
		t.Fatalf("expected storage error to be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrTransient, "remote", "insert", "", nil)) {
		t.Fatalf("transient error should not be fatal")
	}
}
