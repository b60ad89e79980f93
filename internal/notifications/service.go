package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vidnorm/internal/config"
)

const userAgent = "vidnorm/0.1.0"

// Message is a single ntfy publication.
type Message struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

// RunSummary is the outcome of a conversion run.
type RunSummary struct {
	Root      string
	Shard     string
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Sender publishes a prepared message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Service defines the notification surface exposed to the run workflow.
type Service interface {
	NotifyRunStarted(ctx context.Context, root string, files int) error
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyFileFailed(ctx context.Context, path string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	return &ntfyService{
		client:       NewNtfyClient(topic, timeout),
		runCompleted: cfg.Notifications.RunCompleted,
		failures:     cfg.Notifications.Failures,
	}
}

type ntfyService struct {
	client       *NtfyClient
	runCompleted bool
	failures     bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, root string, files int) error {
	if !n.runCompleted {
		return nil
	}
	return n.client.Send(ctx, Message{
		Title:    "vidnorm - Run Started",
		Body:     fmt.Sprintf("Processing %d files under %s", files, strings.TrimSpace(root)),
		Tags:     []string{"vidnorm", "run", "started"},
		Priority: "low",
	})
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	if !n.runCompleted {
		return nil
	}
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "vidnorm - Run Complete"
	body := fmt.Sprintf("%s: %d processed, %d skipped in %s", summary.Root, summary.Processed, summary.Skipped, duration)
	priority := ""
	if summary.Failed > 0 {
		title = "vidnorm - Run Complete (with errors)"
		body = fmt.Sprintf("%s: %d processed, %d skipped, %d failed in %s", summary.Root, summary.Processed, summary.Skipped, summary.Failed, duration)
		priority = "high"
	}
	if summary.Shard != "" {
		body += fmt.Sprintf(" (shard %s)", summary.Shard)
	}
	return n.client.Send(ctx, Message{
		Title:    title,
		Body:     body,
		Tags:     []string{"vidnorm", "run", "completed"},
		Priority: priority,
	})
}

func (n *ntfyService) NotifyFileFailed(ctx context.Context, path string, err error) error {
	if !n.failures {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Conversion failed: ")
	builder.WriteString(strings.TrimSpace(path))
	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}
	return n.client.Send(ctx, Message{
		Title:    "vidnorm - File Failed",
		Body:     builder.String(),
		Tags:     []string{"vidnorm", "error", "alert"},
		Priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.client.Send(ctx, Message{
		Title:    "vidnorm - Test",
		Body:     "🧪 Notification system test",
		Tags:     []string{"vidnorm", "test"},
		Priority: "low",
	})
}

// NtfyClient posts plain-text messages to an ntfy topic URL.
type NtfyClient struct {
	endpoint string
	client   *http.Client
}

// NewNtfyClient returns a client for endpoint (a full topic URL).
func NewNtfyClient(endpoint string, timeout time.Duration) *NtfyClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NtfyClient{endpoint: strings.TrimSpace(endpoint), client: &http.Client{Timeout: timeout}}
}

// Send publishes msg. Non-2xx responses are returned as errors.
func (n *NtfyClient) Send(ctx context.Context, msg Message) error {
	if n == nil || n.client == nil || n.endpoint == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}
	if msg.Priority != "" {
		req.Header.Set("Priority", msg.Priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int) error   { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunSummary) error  { return nil }
func (noopService) NotifyFileFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
