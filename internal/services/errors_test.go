package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"kantori/internal/services"
)

func TestWrapTagsKind(t *testing.T) {
	err := services.Wrap(services.ErrMissingOutput, "separate", "spleeter", "no vocals track", nil)
	if !errors.Is(err, services.ErrMissingOutput) {
		t.Fatalf("expected missing output kind, got %v", err)
	}
	if got := services.Kind(err); got != "missing_output" {
		t.Fatalf("unexpected kind: %s", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", "download failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if got := services.Kind(err); got != "external_tool" {
		t.Fatalf("unexpected kind: %s", got)
	}
}

func TestKindRecognizesDeadline(t *testing.T) {
	err := fmt.Errorf("render: %w", context.DeadlineExceeded)
	if got := services.Kind(err); got != "timeout" {
		t.Fatalf("unexpected kind: %s", got)
	}
}

func TestKindUnknown(t *testing.T) {
	if got := services.Kind(errors.New("plain")); got != "unknown" {
		t.Fatalf("unexpected kind: %s", got)
	}
	if got := services.Kind(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %s", got)
	}
}
