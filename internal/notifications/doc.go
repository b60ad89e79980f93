// Package notifications delivers run events and relayed alerts via ntfy.
//
// NewService publishes to the topic configured in config.toml and degrades
// to a no-op when no topic is set. NtfyClient is the raw transport; the alert
// relay uses it directly with its own endpoint and per-message priority.
package notifications
