package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"loom/internal/config"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/rendering"
	"loom/internal/resource"
	"loom/internal/scripting"
	"loom/internal/stage"
	"loom/internal/voicing"
)

// Manager coordinates the three stage queues using registered stage handlers.
// Each stage runs one control loop; loops are independent of each other but
// serialize work within their own queue.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	handlers map[queue.Stage]stage.Handler
	locks    *resource.Tracker
	kicks    map[queue.Stage]chan struct{}

	pollInterval       time.Duration
	errorRetryInterval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Text  stage.Handler
	Voice stage.Handler
	Video stage.Handler
}

// NewManager constructs a workflow manager with the default stage handlers.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	handlers := StageSet{
		Text:  scripting.NewHandler(cfg, logger),
		Voice: voicing.NewHandler(cfg, logger),
		Video: rendering.NewHandler(cfg, logger),
	}
	return NewManagerWithHandlers(cfg, store, logger, handlers, notifications.NewService(cfg))
}

// NewManagerWithHandlers allows injecting stage handlers and the notifier
// (used in tests).
func NewManagerWithHandlers(cfg *config.Config, store *queue.Store, logger *slog.Logger, handlers StageSet, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	kicks := make(map[queue.Stage]chan struct{}, len(queue.AllStages()))
	for _, st := range queue.AllStages() {
		kicks[st] = make(chan struct{}, 1)
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "workflow")),
		notifier: notifier,
		handlers: map[queue.Stage]stage.Handler{
			queue.StageText:  handlers.Text,
			queue.StageVoice: handlers.Voice,
			queue.StageVideo: handlers.Video,
		},
		locks:              resource.NewTracker(),
		kicks:              kicks,
		pollInterval:       time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// Store exposes the backing queue store.
func (m *Manager) Store() *queue.Store {
	return m.store
}

// Kick wakes a stage loop so it re-checks its queue without waiting out the
// idle poll interval. Safe to call from any goroutine; extra kicks coalesce.
func (m *Manager) Kick(st queue.Stage) {
	ch, ok := m.kicks[st]
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
