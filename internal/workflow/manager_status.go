package workflow

import (
	"context"

	"loom/internal/logging"
	"loom/internal/queue"
	"loom/internal/stage"
)

// StageStatus summarizes one queue for diagnostics.
type StageStatus struct {
	RunState queue.RunState
	Jobs     map[queue.JobStatus]int
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running       bool
	LastError     string
	Stages        map[queue.Stage]StageStatus
	ProjectStats  map[queue.ProjectStatus]int
	StageHealth   map[string]stage.Health
	BusyResources []string
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	m.mu.RUnlock()

	summary := StatusSummary{
		Running:       running,
		Stages:        make(map[queue.Stage]StageStatus, len(queue.AllStages())),
		StageHealth:   make(map[string]stage.Health, len(m.handlers)),
		BusyResources: m.locks.Busy(),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}

	for _, st := range queue.AllStages() {
		state, err := m.store.RunStateFor(ctx, st)
		if err != nil {
			m.logger.Warn("failed to read run state", logging.Error(err))
			state = queue.RunStateStopped
		}
		stats, err := m.store.StageStats(ctx, st)
		if err != nil {
			m.logger.Warn("failed to read stage stats", logging.Error(err))
		}
		summary.Stages[st] = StageStatus{RunState: state, Jobs: stats}
	}

	projectStats, err := m.store.ProjectStats(ctx)
	if err != nil {
		m.logger.Warn("failed to read project stats", logging.Error(err))
	}
	summary.ProjectStats = projectStats

	for st, handler := range m.handlers {
		if handler == nil {
			continue
		}
		summary.StageHealth[string(st)] = handler.HealthCheck(ctx)
	}
	return summary
}
