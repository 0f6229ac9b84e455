package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podscribe/internal/config"
)

const userAgent = "Podscribe-Go/0.1.0"

// Event names a notable moment in a job's life.
type Event string

// Events the daemon publishes. Publish accepts and silently drops events that
// are disabled in config, so callers never check which are enabled.
const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventTest         Event = "test"
)

// Payload carries event details for message formatting. Values are rendered
// with fmt.Sprint, so errors and stringers work as-is.
type Payload map[string]any

// Service defines the notification surface exposed to the pipeline and the
// API server.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	// Enabled reports whether publishes can reach a real backend.
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		jobComplete: cfg.Notifications.JobComplete,
		jobFailed:   cfg.Notifications.JobFailed,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	jobComplete bool
	jobFailed   bool
}

func (n *ntfyService) Enabled() bool { return true }

// Publish formats and sends event. Disabled and unknown events are dropped
// without error.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventJobCompleted:
		if !n.jobComplete {
			return message{}, false
		}
		return message{
			title:    "Podscribe - Transcription Complete",
			body:     fmt.Sprintf("✅ Transcription complete: %s", payloadString(payload, "title")),
			tags:     []string{"podscribe", "job", "completed"},
			priority: "high",
		}, true
	case EventJobFailed:
		if !n.jobFailed {
			return message{}, false
		}
		body := fmt.Sprintf("❌ Transcription failed: %s", payloadString(payload, "title"))
		if errText := payloadString(payload, "error"); errText != "" {
			body = fmt.Sprintf("%s\n%s", body, errText)
		}
		return message{
			title:    "Podscribe - Transcription Failed",
			body:     body,
			tags:     []string{"podscribe", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Podscribe - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"podscribe", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
func (noopService) Enabled() bool                                 { return false }
