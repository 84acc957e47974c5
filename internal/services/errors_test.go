package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"newscast/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "assembly", "concat", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"assembly", "concat", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", services.Wrap(services.ErrValidation, "script", "plan", "bad", nil), "validation"},
		{"transient", services.Wrap(services.ErrTransient, "narration", "speak", "503", nil), "transient"},
		{"cancelled", fmt.Errorf("run: %w", context.Canceled), "cancelled"},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), "timeout"},
		{"plain", errors.New("mystery"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.want {
				t.Fatalf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !services.Retryable(services.Wrap(services.ErrTimeout, "collector", "fetch", "slow", nil)) {
		t.Fatal("expected timeout to be retryable")
	}
	if services.Retryable(services.Wrap(services.ErrConfiguration, "tts", "speak", "no key", nil)) {
		t.Fatal("expected configuration error to be permanent")
	}
	wrapped := services.Wrap(services.ErrTransient, "tts", "speak", "cancel", context.Canceled)
	if services.Retryable(wrapped) {
		t.Fatal("expected cancellation to suppress retry")
	}
}

func TestDetailsAddsHint(t *testing.T) {
	details := services.Details(services.Wrap(services.ErrConfiguration, "llm", "init", "api key missing", nil))
	if details.Kind != "configuration" {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if details.Hint == "" || !strings.Contains(details.Message, "api key missing") {
		t.Fatalf("unexpected details %#v", details)
	}
}
