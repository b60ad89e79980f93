package workflow

import (
	"context"
	"errors"

	"vidnorm/internal/logging"
	"vidnorm/internal/notifications"
)

func (m *Manager) notifyRunStarted(ctx context.Context, root string, files int) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyRunStarted(ctx, root, files); err != nil {
		m.logNotifyError(ctx, "run start notification failed", err)
	}
}

func (m *Manager) notifyRunCompleted(ctx context.Context, summary Summary) {
	if m.notifier == nil {
		return
	}
	err := m.notifier.NotifyRunCompleted(ctx, notifications.RunSummary{
		Root:      summary.Root,
		Shard:     summary.ShardLabel(),
		Processed: summary.Processed(),
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
		Duration:  summary.Duration,
	})
	if err != nil {
		m.logNotifyError(ctx, "run completion notification failed", err)
	}
}

func (m *Manager) notifyFileFailed(ctx context.Context, path string, fileErr error) {
	if m.notifier == nil || fileErr == nil {
		return
	}
	if err := m.notifier.NotifyFileFailed(ctx, path, fileErr); err != nil {
		m.logNotifyError(ctx, "file failure notification failed", err)
	}
}

func (m *Manager) logNotifyError(ctx context.Context, msg string, err error) {
	logger := logging.WithContext(ctx, m.logger)
	if errors.Is(err, context.Canceled) {
		logger.Debug("shutting down, notification not sent")
		return
	}
	logger.Debug(msg, logging.Error(err))
}
