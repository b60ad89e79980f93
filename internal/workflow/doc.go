// Package workflow drives a conversion run over one directory tree.
//
// The Manager scans the root, keeps the files owned by this shard, and feeds
// them to a pool of workers. Each worker gates the file through the state
// store, probes it, records compatible files, and hands the rest to the
// retry controller. Every terminal outcome is persisted before the worker
// moves on, so an interrupted run resumes where it stopped.
//
// Per-file failures are logged, recorded as failed, and counted; they never
// abort the run. Cancellation stops dispatch, cancels in-flight encodes, and
// leaves interrupted files unrecorded.
package workflow
