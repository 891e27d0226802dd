// Package notifications pushes pipeline events to ntfy. When no topic is
// configured every publish is a noop.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loom/internal/config"
)

const userAgent = "Loom-Go/0.1.0"

// Event identifies a notable pipeline occurrence.
type Event string

const (
	EventProjectCreated Event = "project_created"
	EventStageFailed    Event = "stage_failed"
	EventProjectReady   Event = "project_ready"
	EventProjectVoiced  Event = "project_voiced"
	EventRendered       Event = "rendered"
	EventTest           Event = "test"
)

// Payload carries event-specific fields used to build the message body.
type Payload map[string]string

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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
		stageErrors: cfg.Notifications.StageErrors,
		rendered:    cfg.Notifications.Rendered,
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

type ntfyService struct {
	endpoint    string
	client      *http.Client
	stageErrors bool
	rendered    bool
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.compose(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) compose(event Event, payload Payload) (message, bool) {
	title := strings.TrimSpace(payload["title"])
	switch event {
	case EventProjectCreated:
		return message{
			title: "Loom - Project Created",
			body:  fmt.Sprintf("New project queued: %s", title),
			tags:  []string{"loom", "project", "created"},
		}, true
	case EventStageFailed:
		if !n.stageErrors {
			return message{}, false
		}
		return message{
			title:    "Loom - Stage Failed",
			body:     fmt.Sprintf("%s stage failed for %s: %s", payload["stage"], title, payload["error"]),
			tags:     []string{"loom", "error", "alert"},
			priority: "high",
		}, true
	case EventProjectReady:
		return message{
			title: "Loom - Script Ready",
			body:  fmt.Sprintf("Script generated: %s", title),
			tags:  []string{"loom", "text", "completed"},
		}, true
	case EventProjectVoiced:
		return message{
			title: "Loom - Voiced",
			body:  fmt.Sprintf("Voice synthesis complete: %s", title),
			tags:  []string{"loom", "voice", "completed"},
		}, true
	case EventRendered:
		if !n.rendered {
			return message{}, false
		}
		body := fmt.Sprintf("Video rendered: %s", title)
		if file := strings.TrimSpace(payload["file"]); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		return message{
			title:    "Loom - Rendered",
			body:     body,
			tags:     []string{"loom", "video", "completed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Loom - Test",
			body:     "Notification system test",
			tags:     []string{"loom", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
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
