package api

import (
	"context"
	"log/slog"
	"strings"

	"loom/internal/config"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/selection"
	"loom/internal/workflow"
)

// Service is the single entry point for operational commands. The IPC server
// and the CLI both drive the pipeline exclusively through it.
type Service struct {
	cfg      *config.Config
	store    *queue.Store
	manager  *workflow.Manager
	bulk     *selection.Manager
	notifier notifications.Service
	logger   *slog.Logger
}

// NewService constructs the API service on top of a workflow manager.
func NewService(cfg *config.Config, manager *workflow.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	store := manager.Store()
	return &Service{
		cfg:      cfg,
		store:    store,
		manager:  manager,
		bulk:     selection.NewManager(store),
		notifier: notifications.NewService(cfg),
		logger:   logger.With(logging.String(logging.FieldComponent, "api")),
	}
}

// Manager exposes the underlying workflow manager for daemon lifecycle wiring.
func (s *Service) Manager() *workflow.Manager {
	return s.manager
}

// TestNotification publishes a test event so operators can verify their ntfy
// topic. It reports whether a notification backend is configured.
func (s *Service) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(s.cfg.Notifications.NtfyTopic) == "" {
		return false, "notifications are not configured", nil
	}
	if err := s.notifier.Publish(ctx, notifications.EventTest, notifications.Payload{}); err != nil {
		return false, "", err
	}
	return true, "test notification sent", nil
}
