package logging

import (
	"context"
	"log/slog"

	"vidnorm/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized key for the per-run correlation identifier.
	FieldRunID = "run_id"
	// FieldShard is the standardized key for the shard index owned by this process.
	FieldShard = "shard"
	// FieldWorker is the standardized key for the 1-based worker number.
	FieldWorker = "worker"
	// FieldFile is the standardized key for the media file being processed.
	FieldFile = "file"
	// FieldAttempt is the standardized key for the encode attempt number.
	FieldAttempt = "attempt"
	// FieldEventType classifies log lines for filtering.
	FieldEventType = "event_type"
	// FieldMode is the encoder mode of the current attempt, "gpu" or "cpu".
	FieldMode = "mode"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 6)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if shard, ok := services.ShardFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldShard, shard))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldWorker, worker))
	}
	if file, ok := services.FileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, file))
	}
	if attempt, ok := services.AttemptFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldAttempt, attempt))
	}
	if mode, ok := services.ModeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMode, mode))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
