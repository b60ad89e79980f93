// Package encoding turns a probe result into an ffmpeg invocation, runs it,
// and moves the output into place.
//
// Build is the pure command builder. FFmpegExecutor runs one attempt in its
// own process group under a wall-clock cap, streams encoder output to the
// logger, and finalizes the scratch output next to the source according to
// the cleanup policy. RetryController bounds attempts per file and falls back
// from NVENC to libx264 after the first failure, recording the visited states
// in a Trace.
package encoding
