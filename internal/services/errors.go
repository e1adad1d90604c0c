package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Stage error kinds. Every collaborator failure is tagged with exactly one
// of these sentinels so the pipeline and logs can classify it.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrMissingOutput = errors.New("missing output")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTimeout       = errors.New("timeout")
	ErrValidation    = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided kind sentinel for later classification.
func Wrap(kind error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if kind == nil {
		kind = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", kind, detail, err)
	}
	return fmt.Errorf("%w: %s", kind, detail)
}

// Kind returns the short classification name for a stage error, or "unknown"
// when the error carries no recognized sentinel.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrMissingOutput):
		return "missing_output"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
