package state

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"vidnorm/internal/services"
)

// Store answers whether a file needs work and records outcomes.
type Store struct {
	repo    Repository
	mu      sync.Mutex
	records map[string]Record
}

// Open loads the repository selected by backend for root.
func Open(ctx context.Context, root, backend string, logger *slog.Logger) (*Store, error) {
	repo, err := OpenRepository(ctx, root, backend, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "state", "open", root, err)
	}
	store, err := NewStore(ctx, repo)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	return store, nil
}

// NewStore loads all records from repo.
func NewStore(ctx context.Context, repo Repository) (*Store, error) {
	records, err := repo.Load(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "state", "load", "", err)
	}
	return &Store{repo: repo, records: records}, nil
}

// ShouldProcess reports whether path has no record, has a record that no
// longer matches the file's mtime and size, or was recorded as failed.
func (s *Store) ShouldProcess(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, services.Wrap(services.ErrIOFailure, "state", "stat", path, err)
	}
	s.mu.Lock()
	record, ok := s.records[cleanKey(path)]
	s.mu.Unlock()
	if !ok || !record.Matches(info) {
		return true, nil
	}
	return !record.Status.Done(), nil
}

// Lookup returns the cached record for path.
func (s *Store) Lookup(path string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[cleanKey(path)]
	return record, ok
}

// Mark records status for path using its current mtime and size and
// persists the change before returning.
func (s *Store) Mark(ctx context.Context, path string, status Status) error {
	if !status.Valid() {
		return services.Wrap(services.ErrConfiguration, "state", "mark", fmt.Sprintf("unknown status %q", status), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "state", "stat", path, err)
	}
	record := recordFor(info, status)
	if err := s.repo.Put(ctx, path, record); err != nil {
		return services.Wrap(services.ErrIOFailure, "state", "persist", path, err)
	}
	s.mu.Lock()
	s.records[cleanKey(path)] = record
	s.mu.Unlock()
	return nil
}

// Records returns all entries sorted by path.
func (s *Store) Records() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, 0, len(s.records))
	for path, record := range s.records {
		entries = append(entries, Entry{Path: path, Record: record})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// Close releases the underlying repository.
func (s *Store) Close() error {
	if s == nil || s.repo == nil {
		return nil
	}
	return s.repo.Close()
}
