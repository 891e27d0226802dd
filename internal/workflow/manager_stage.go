package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, st queue.Stage, stageLogger *slog.Logger, job *queue.Job) error {
	handler, ok := m.handlers[st]
	if !ok || handler == nil {
		err := fmt.Errorf("no handler registered for %s stage", st)
		m.setLastError(err)
		if failErr := m.store.FailJob(ctx, job, err.Error()); failErr != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(failErr))
		}
		return err
	}

	if job.RequiresResource() && !m.locks.Acquire(job.ResourceID, job.ID) {
		// Another job grabbed the resource between eligibility check and
		// dispatch; leave the job waiting.
		m.waitForWork(ctx, st)
		return nil
	}
	defer m.locks.Release(job.ResourceID, job.ID)

	requestID := uuid.NewString()
	jobCtx := services.WithRequestID(ctx, requestID)
	jobCtx = services.WithJobID(jobCtx, job.ID)
	jobCtx = services.WithProjectID(jobCtx, job.ProjectID)
	jobCtx = services.WithStage(jobCtx, string(st))
	logger := logging.WithContext(jobCtx, stageLogger)

	project, err := m.store.GetProject(jobCtx, job.ProjectID)
	if err != nil {
		m.setLastError(err)
		logger.Error("failed to load project for job", logging.Error(err))
		return err
	}
	if project == nil {
		logger.Warn("job references missing project; removing")
		if _, err := m.store.RemoveJob(jobCtx, job.ID); err != nil {
			logger.Error("failed to remove orphaned job", logging.Error(err))
		}
		return nil
	}

	if err := m.store.MarkProcessing(jobCtx, job); err != nil {
		m.setLastError(err)
		logger.Error("failed to transition job to processing", logging.Error(err))
		return err
	}

	return m.executeStage(jobCtx, st, logger, handler, job, project)
}

func (m *Manager) executeStage(ctx context.Context, st queue.Stage, logger *slog.Logger, handler stage.Handler, job *queue.Job, project *queue.Project) error {
	stageStart := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("title", strings.TrimSpace(project.Title)),
	)

	if err := handler.Prepare(ctx, job, project); err != nil {
		m.handleStageFailure(ctx, st, logger, job, project, err)
		return err
	}

	execErr := handler.Execute(ctx, job, project)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, st, logger, job, project, execErr)
		return execErr
	}

	// Output, status advance, job removal, and next-stage enqueue commit as
	// one transaction so no observer sees the project between queues.
	next, err := m.store.CompleteAndChain(ctx, queue.Completion{
		Job:             job,
		Project:         project,
		VideoConfigJSON: job.VideoConfigJSON,
	})
	if err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		m.setLastError(wrapped)
		logger.Error("failed to persist stage result", logging.Error(wrapped))
		return wrapped
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("project_status", string(project.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	if next != nil {
		m.Kick(next.Stage)
	}
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, st queue.Stage, logger *slog.Logger, job *queue.Job, project *queue.Project, stageErr error) {
	m.setLastError(stageErr)
	message := services.Message(stageErr)
	if message == "" {
		message = fmt.Sprintf("%s stage failed", st)
	}

	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String("error_message", message),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	if err := m.store.FailJob(ctx, job, message); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	if m.notifier != nil {
		payload := notifications.Payload{
			"title": project.Title,
			"stage": string(st),
			"error": message,
		}
		if err := m.notifier.Publish(ctx, notifications.EventStageFailed, payload); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}
