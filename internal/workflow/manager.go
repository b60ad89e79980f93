package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vidnorm/internal/config"
	"vidnorm/internal/encoding"
	"vidnorm/internal/logging"
	"vidnorm/internal/media/ffprobe"
	"vidnorm/internal/metrics"
	"vidnorm/internal/notifications"
)

// Finder enumerates candidate video files under a root.
type Finder interface {
	Find(ctx context.Context, root string) ([]string, error)
}

// Manager runs the per-file pipeline across a worker pool.
type Manager struct {
	cfg      *config.Config
	params   encoding.Params
	finder   Finder
	prober   ffprobe.Prober
	retry    *encoding.RetryController
	notifier notifications.Service
	metrics  *metrics.Run
	logger   *slog.Logger

	progressInterval time.Duration
	newRunID         func() string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notifier built from configuration.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithMetrics records run counters on m.
func WithMetrics(run *metrics.Run) ManagerOption {
	return func(m *Manager) {
		m.metrics = run
	}
}

// WithProgressInterval sets how often run progress is logged. Zero disables it.
func WithProgressInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.progressInterval = interval
	}
}

// WithRunIDGenerator overrides the run id source (used in tests).
func WithRunIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newRunID = fn
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, params encoding.Params, finder Finder, prober ffprobe.Prober, executor encoding.Executor, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:              cfg,
		params:           params,
		finder:           finder,
		prober:           prober,
		retry:            encoding.NewRetryController(executor, logging.NewComponentLogger(logger, "retry")),
		notifier:         notifications.NewService(cfg),
		logger:           logging.NewComponentLogger(logger, "workflow-manager"),
		progressInterval: time.Minute,
		newRunID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
