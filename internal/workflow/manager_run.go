package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"loom/internal/logging"
	"loom/internal/queue"
)

// Start recovers persisted state and launches one control loop per stage.
// Jobs left in processing by an unclean shutdown return to waiting before any
// loop dispatches, so no stale resource lock survives a restart.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}

	recovered, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if recovered > 0 {
		m.logger.Info("recovered interrupted jobs",
			logging.Int64("count", recovered),
			logging.String(logging.FieldEventType, "recovery"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(len(queue.AllStages()))
	m.mu.Unlock()

	for _, st := range queue.AllStages() {
		go m.runStage(runCtx, st)
	}
	return nil
}

// Stop terminates the control loops and waits for in-flight work to settle.
// An in-flight external call is allowed to finish its persistence step.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the control loops are active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runStage(ctx context.Context, st queue.Stage) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String(logging.FieldStage, string(st)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		state, err := m.store.RunStateFor(ctx, st)
		if err != nil {
			m.handleLoopError(ctx, logger, err)
			continue
		}
		if state != queue.RunStateRunning {
			m.waitForWork(ctx, st)
			continue
		}

		job, err := m.nextJob(ctx, st)
		if err != nil {
			m.handleLoopError(ctx, logger, err)
			continue
		}
		if job == nil {
			m.waitForWork(ctx, st)
			continue
		}

		if err := m.processJob(ctx, st, logger, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// nextJob returns the frontmost eligible waiting job. Jobs bound to a busy
// resource are passed over without losing their position, so a held resource
// never blocks the rest of the queue.
func (m *Manager) nextJob(ctx context.Context, st queue.Stage) (*queue.Job, error) {
	return m.store.NextEligible(ctx, st, m.locks.Busy())
}

func (m *Manager) handleLoopError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check pipeline database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.errorRetryInterval):
	}
}

// waitForWork blocks until the stage is kicked, the idle poll interval
// elapses, or shutdown begins.
func (m *Manager) waitForWork(ctx context.Context, st queue.Stage) {
	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-m.kicks[st]:
	case <-timer.C:
	}
}
