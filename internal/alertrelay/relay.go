package alertrelay

import (
	"context"
	"log/slog"

	"vidnorm/internal/logging"
	"vidnorm/internal/metrics"
	"vidnorm/internal/notifications"
)

// Relay turns webhook payloads into ntfy messages.
type Relay struct {
	translator Translator
	sender     notifications.Sender
	metrics    *metrics.Relay
	logger     *slog.Logger
}

// New constructs a relay. A nil logger discards output.
func New(translator Translator, sender notifications.Sender, m *metrics.Relay, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Relay{
		translator: translator,
		sender:     sender,
		metrics:    m,
		logger:     logging.NewComponentLogger(logger, "alertrelay"),
	}
}

// Handle relays every alert in payload. Delivery failures are logged and
// counted; they do not stop the remaining alerts.
func (r *Relay) Handle(ctx context.Context, payload Payload) int {
	delivered := 0
	for _, alert := range payload.Alerts {
		if r.relay(ctx, payload.Status, alert) {
			delivered++
		}
	}
	return delivered
}

func (r *Relay) relay(ctx context.Context, payloadStatus string, alert Alert) bool {
	status := StatusOf(payloadStatus, alert)
	severity := alert.Severity()
	logger := r.logger.With(
		logging.String("alertname", alert.Name()),
		logging.String("severity", severity),
		logging.String("status", status),
	)
	if r.metrics != nil {
		r.metrics.Alerts.WithLabelValues(status, severity).Inc()
	}

	message := r.message(ctx, logger, status, alert)
	msg := notifications.Message{
		Title:    alert.Name() + " (" + status + ")",
		Body:     Emoji(status) + " " + message,
		Tags:     []string{severity},
		Priority: Priority(severity),
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		logging.ErrorWithContext(logger, "ntfy delivery failed", "relay_delivery_failed", logging.Error(err))
		r.countDelivery("failure")
		return false
	}
	logger.Info("alert relayed", logging.String("message", message))
	r.countDelivery("success")
	return true
}

func (r *Relay) message(ctx context.Context, logger *slog.Logger, status string, alert Alert) string {
	if r.translator != nil {
		text, err := r.translator.Translate(ctx, Prompt(Text(status, alert)))
		if err == nil {
			r.countTranslation("generated")
			return text
		}
		logging.WarnWithContext(logger, "alert translation failed; using fallback", "relay_translation_fallback",
			logging.Error(err),
		)
	}
	r.countTranslation("fallback")
	return Fallback(alert)
}

func (r *Relay) countTranslation(source string) {
	if r.metrics != nil {
		r.metrics.Translations.WithLabelValues(source).Inc()
	}
}

func (r *Relay) countDelivery(result string) {
	if r.metrics != nil {
		r.metrics.Deliveries.WithLabelValues(result).Inc()
	}
}
