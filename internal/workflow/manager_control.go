package workflow

import (
	"context"

	"loom/internal/logging"
	"loom/internal/queue"
)

// StartQueue sets a stage queue running and wakes its loop.
func (m *Manager) StartQueue(ctx context.Context, st queue.Stage) error {
	if err := m.store.SetRunState(ctx, st, queue.RunStateRunning); err != nil {
		return err
	}
	m.logger.Info("queue started", logging.String(logging.FieldStage, string(st)))
	m.Kick(st)
	return nil
}

// PauseQueue stops future dispatches without touching queued jobs. An
// in-flight job finishes normally.
func (m *Manager) PauseQueue(ctx context.Context, st queue.Stage) error {
	if err := m.store.SetRunState(ctx, st, queue.RunStatePaused); err != nil {
		return err
	}
	m.logger.Info("queue paused", logging.String(logging.FieldStage, string(st)))
	return nil
}

// StopQueue stops future dispatches; the persisted state keeps the queue
// stopped across restarts.
func (m *Manager) StopQueue(ctx context.Context, st queue.Stage) error {
	if err := m.store.SetRunState(ctx, st, queue.RunStateStopped); err != nil {
		return err
	}
	m.logger.Info("queue stopped", logging.String(logging.FieldStage, string(st)))
	return nil
}

// ClearQueue removes the waiting and errored jobs from a stage queue and
// stops it. An in-flight job keeps its row and finishes its current run;
// project statuses are left untouched.
func (m *Manager) ClearQueue(ctx context.Context, st queue.Stage) (int64, error) {
	removed, err := m.store.ClearStage(ctx, st, queue.JobWaiting, queue.JobError)
	if err != nil {
		return 0, err
	}
	if err := m.store.SetRunState(ctx, st, queue.RunStateStopped); err != nil {
		return removed, err
	}
	m.logger.Info("queue cleared",
		logging.String(logging.FieldStage, string(st)),
		logging.Int64("removed", removed),
	)
	return removed, nil
}

// RetryJob moves an errored job back to the front of its queue and wakes the
// stage loop for an immediate re-attempt.
func (m *Manager) RetryJob(ctx context.Context, jobID int64) (*queue.Job, error) {
	job, err := m.store.RetryJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("job requeued for retry",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, string(job.Stage)),
	)
	m.Kick(job.Stage)
	return job, nil
}
