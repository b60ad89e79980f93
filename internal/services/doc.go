// Package services defines shared utilities consumed by the conversion
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, shard/worker numbers, the
//     file being processed, and encode attempt details for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     probe, encode, timeout, or filesystem problems so retry logic can decide
//     what is worth another attempt.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
