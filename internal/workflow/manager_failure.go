package workflow

import (
	"context"

	"vidnorm/internal/encoding"
	"vidnorm/internal/logging"
	"vidnorm/internal/state"
)

// handleFileFailure logs err, records the file as failed when it can still
// be stat'ed, and notifies. The run continues with the next file.
func (m *Manager) handleFileFailure(ctx context.Context, store *state.Store, result FileResult, fileErr error, markable bool) FileResult {
	logger := logging.WithContext(ctx, m.logger)
	if last := result.Trace.Last(); last != encoding.PhaseFailed {
		result.Trace = append(result.Trace, encoding.Step{Phase: encoding.PhaseFailed, Err: fileErr})
	}
	result.Outcome = OutcomeFailed
	result.Err = fileErr

	logging.ErrorWithContext(logger, "file failed", "file_failed",
		logging.ErrorKind(fileErr),
		logging.String("trace", result.Trace.String()),
		logging.Error(fileErr),
	)

	if markable {
		if err := store.Mark(persistCtx(ctx), result.Path, state.StatusFailed); err != nil {
			logging.ErrorWithContext(logger, "failed to persist failure state", "state_mark_failed", logging.Error(err))
		}
	}
	m.notifyFileFailed(ctx, result.Path, fileErr)
	return result
}

// handleMarkFailure counts a file whose outcome could not be persisted as failed.
func (m *Manager) handleMarkFailure(ctx context.Context, result FileResult, markErr error) FileResult {
	logger := logging.WithContext(ctx, m.logger)
	logging.ErrorWithContext(logger, "failed to persist file state", "state_mark_failed",
		logging.ErrorKind(markErr),
		logging.Error(markErr),
	)
	result.Trace = append(result.Trace, encoding.Step{Phase: encoding.PhaseFailed, Err: markErr})
	result.Outcome = OutcomeFailed
	result.Err = markErr
	m.notifyFileFailed(ctx, result.Path, markErr)
	return result
}
