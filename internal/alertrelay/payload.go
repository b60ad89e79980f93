package alertrelay

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Payload is the webhook body accepted on /webhook.
type Payload struct {
	Status string  `json:"status"`
	Alerts []Alert `json:"alerts"`
}

// Alert is a single alert inside a webhook payload.
type Alert struct {
	Status      string            `json:"status,omitempty"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
}

// Defaults for fields Alertmanager may omit.
const (
	defaultStatus    = "unknown"
	defaultAlertname = "Unknown"
	defaultSeverity  = "info"
)

func (a Alert) label(key, fallback string) string {
	if v := strings.TrimSpace(a.Labels[key]); v != "" {
		return v
	}
	return fallback
}

func (a Alert) annotation(key string) string {
	return strings.TrimSpace(a.Annotations[key])
}

// Name returns the alertname label.
func (a Alert) Name() string { return a.label("alertname", defaultAlertname) }

// Severity returns the severity label.
func (a Alert) Severity() string { return a.label("severity", defaultSeverity) }

// Instance returns the instance label, empty when absent.
func (a Alert) Instance() string { return a.label("instance", "") }

// StatusOf returns the alert's own status, then the payload status, then
// "unknown".
func StatusOf(payloadStatus string, alert Alert) string {
	if v := strings.TrimSpace(alert.Status); v != "" {
		return v
	}
	if v := strings.TrimSpace(payloadStatus); v != "" {
		return v
	}
	return defaultStatus
}

// Text renders the alert as the single line handed to the model.
func Text(status string, alert Alert) string {
	return "status:" + status +
		" alert:" + alert.Name() +
		" severity:" + alert.Severity() +
		" summary:" + alert.annotation("summary") +
		" description:" + alert.annotation("description") +
		" instance:" + alert.Instance()
}

const promptPrefix = "Translate this alert into a short, clear notification (1-2 sentences max, no JSON):\n\n"

// Prompt wraps alert text in the translation instruction.
func Prompt(alertText string) string {
	return promptPrefix + alertText
}

var upper = cases.Upper(language.Und)

// Fallback is the message used when no generated text is available.
func Fallback(alert Alert) string {
	return "[" + upper.String(alert.Severity()) + "] " + alert.Name() + ": " + alert.annotation("description")
}

// Priority maps a severity label to an ntfy priority.
func Priority(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "critical":
		return "urgent"
	case "warning":
		return "high"
	default:
		return "default"
	}
}

// Emoji marks firing alerts red and everything else as resolved.
func Emoji(status string) string {
	if strings.EqualFold(strings.TrimSpace(status), "firing") {
		return "🔴"
	}
	return "✅"
}
