// Package alertrelay receives Alertmanager-style webhooks, asks a local
// text-generation service to phrase each alert as a short notification, and
// forwards the result to ntfy.
//
// When the text-generation call fails the relay falls back to a fixed
// "[SEVERITY] alertname: description" message so alerts are never dropped.
package alertrelay
