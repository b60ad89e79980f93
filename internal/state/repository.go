package state

import (
	"context"
	"fmt"
	"log/slog"

	"vidnorm/internal/config"
)

// Repository is the storage medium behind a Store.
type Repository interface {
	// Load returns every persisted record keyed by absolute path.
	Load(ctx context.Context) (map[string]Record, error)
	// Put durably stores a single record.
	Put(ctx context.Context, path string, record Record) error
	Close() error
}

// OpenRepository opens the repository selected by backend for root.
func OpenRepository(ctx context.Context, root, backend string, logger *slog.Logger) (Repository, error) {
	switch backend {
	case "", config.StateBackendJSON:
		return NewJSONRepository(root, logger), nil
	case config.StateBackendSQLite:
		return OpenSQLiteRepository(ctx, root)
	default:
		return nil, fmt.Errorf("state backend: unsupported value %q", backend)
	}
}
