// Package logging assembles structured slog loggers and formatting helpers used
// across vidnorm components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run identifier, shard, worker, file, and encode attempt. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
