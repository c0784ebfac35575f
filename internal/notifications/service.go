package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"salient/internal/config"
)

const userAgent = "Salient-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventJobCompleted   Event = "job_completed"
	EventJobFailed      Event = "job_failed"
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
	EventTest           Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a noop when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventJobCompleted:   cfg.Notifications.JobCompleted,
			EventJobFailed:      cfg.Notifications.JobFailed,
			EventQueueStarted:   true,
			EventQueueCompleted: true,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventJobCompleted:
		segments := payloadInt(payload, "segments")
		noun := "segments"
		if segments == 1 {
			noun = "segment"
		}
		return message{
			title: "Salient - Analysis Complete",
			body: fmt.Sprintf("%s: %d salient %s in %s",
				payloadString(payload, "filename"), segments, noun, formatSeconds(payloadFloat(payload, "durationSec"))),
			tags: []string{"salient", "analysis", "completed"},
		}, true
	case EventJobFailed:
		return message{
			title:    "Salient - Analysis Failed",
			body:     fmt.Sprintf("%s: %s", payloadString(payload, "filename"), payloadString(payload, "error")),
			tags:     []string{"salient", "error", "alert"},
			priority: "high",
		}, true
	case EventQueueStarted:
		return message{
			title: "Salient - Queue Started",
			body:  fmt.Sprintf("Started processing %d queued jobs", payloadInt(payload, "count")),
			tags:  []string{"salient", "queue", "started"},
		}, true
	case EventQueueCompleted:
		done := payloadInt(payload, "processed")
		failed := payloadInt(payload, "failed")
		duration := "0s"
		if d, ok := payload["duration"].(time.Duration); ok && d > 0 {
			duration = d.Round(time.Second).String()
		}
		title := "Salient - Queue Complete"
		body := fmt.Sprintf("Queue processing complete: %d jobs in %s", done, duration)
		if failed > 0 {
			title = "Salient - Queue Complete (with errors)"
			body = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", done, failed, duration)
		}
		return message{title: title, body: body, tags: []string{"salient", "queue", "completed"}}, true
	case EventTest:
		return message{
			title:    "Salient - Test",
			body:     "Notification system test",
			tags:     []string{"salient", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
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

func payloadString(p Payload, key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func payloadInt(p Payload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func payloadFloat(p Payload, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func formatSeconds(sec float64) string {
	return (time.Duration(sec * float64(time.Second))).Round(100 * time.Millisecond).String()
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
