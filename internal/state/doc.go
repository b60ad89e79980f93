// Package state persists per-file processing outcomes so repeated runs skip
// work that is already done.
//
// A Record is trusted only while the file's modification time and size still
// match what was recorded. Store wraps a Repository: JSONRepository keeps the
// whole map in a single document at the processing root, written atomically
// under an advisory file lock so shards sharing a root merge their marks;
// SQLiteRepository keeps one row per file.
package state
