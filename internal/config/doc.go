// Package config loads, normalizes, and validates vidnorm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// JOB_COMPLETION_INDEX for batch-scheduler shard assignment. The Config type
// centralizes every knob the converter, the CLI, and the alert relay need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
