package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"vidnorm/internal/logging"
)

const lockRetryDelay = 50 * time.Millisecond

// JSONRepository stores all records in one indented JSON document.
type JSONRepository struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	mu     sync.Mutex
}

// NewJSONRepository returns a repository for root/.transcode_state.json.
func NewJSONRepository(root string, logger *slog.Logger) *JSONRepository {
	return &JSONRepository{
		path:   filepath.Join(root, DocumentName),
		lock:   flock.New(filepath.Join(root, LockName)),
		logger: logging.NewComponentLogger(logger, "state"),
	}
}

// Path returns the document location.
func (r *JSONRepository) Path() string {
	return r.path
}

// Load reads the document. A missing document is empty; a corrupt one is
// logged and treated as empty.
func (r *JSONRepository) Load(ctx context.Context) (map[string]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(ctx)
}

// Put merges record into the current on-disk document and replaces it
// atomically. The in-process mutex and the advisory lock file serialize
// writers, and re-reading under the lock keeps records written by other
// processes.
func (r *JSONRepository) Put(ctx context.Context, path string, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	locked, err := r.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire state lock: %s busy", r.lock.Path())
	}
	defer func() { _ = r.lock.Unlock() }()

	records, err := r.read(ctx)
	if err != nil {
		return err
	}
	records[cleanKey(path)] = record
	return r.write(records)
}

func (r *JSONRepository) read(ctx context.Context) (map[string]Record, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state document: %w", err)
	}
	records := map[string]Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "state document unreadable; starting empty", "state_document_corrupt",
			logging.String("path", r.path),
			logging.String(logging.FieldImpact, "previously recorded files will be probed again"),
			logging.Error(err),
		)
		return map[string]Record{}, nil
	}
	r.logger.Debug("loaded state", logging.Int("entries", len(records)))
	return records, nil
}

func (r *JSONRepository) write(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), DocumentName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state document: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp state document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp state document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp state document: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp state document: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace state document: %w", err)
	}
	return nil
}

// Close releases the lock file handle.
func (r *JSONRepository) Close() error {
	return r.lock.Close()
}
