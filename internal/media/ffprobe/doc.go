// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: container name, duration, and ordered stream metadata
//   - Stream: codec, type, bit depth, transfer characteristic, channels
//   - Prober: port implemented by CLIProber and by test fakes
//
// Missing or unparseable numeric fields degrade to zero (duration) or to
// absent (bit depth) instead of failing the probe.
package ffprobe
