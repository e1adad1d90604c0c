package logging

import (
	"context"
	"log/slog"

	"kantori/internal/services"
)

// WithContext returns a logger annotated with any pipeline identifiers
// carried by ctx (stage, video id, request id).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		logger = logger.With(String(FieldStage, stage))
	}
	if videoID, ok := services.VideoIDFromContext(ctx); ok {
		logger = logger.With(String(FieldVideoID, videoID))
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		logger = logger.With(String(FieldRequestID, requestID))
	}
	return logger
}
