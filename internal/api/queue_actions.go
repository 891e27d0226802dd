package api

import (
	"context"
	"errors"

	"loom/internal/queue"
	"loom/internal/services"
)

func parseStageName(operation, raw string) (queue.Stage, error) {
	st, ok := queue.ParseStage(raw)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "api", operation, "unknown stage "+raw, nil)
	}
	return st, nil
}

// StartQueue resumes dispatch for a stage queue.
func (s *Service) StartQueue(ctx context.Context, stageName string) error {
	st, err := parseStageName("start queue", stageName)
	if err != nil {
		return err
	}
	return s.manager.StartQueue(ctx, st)
}

// PauseQueue suspends dispatch for a stage queue without touching its jobs.
func (s *Service) PauseQueue(ctx context.Context, stageName string) error {
	st, err := parseStageName("pause queue", stageName)
	if err != nil {
		return err
	}
	return s.manager.PauseQueue(ctx, st)
}

// StopQueue halts dispatch for a stage queue across restarts.
func (s *Service) StopQueue(ctx context.Context, stageName string) error {
	st, err := parseStageName("stop queue", stageName)
	if err != nil {
		return err
	}
	return s.manager.StopQueue(ctx, st)
}

// ClearQueue removes every job from a stage queue and stops it, returning the
// number of removed jobs. Project statuses are untouched.
func (s *Service) ClearQueue(ctx context.Context, stageName string) (int64, error) {
	st, err := parseStageName("clear queue", stageName)
	if err != nil {
		return 0, err
	}
	return s.manager.ClearQueue(ctx, st)
}

// RetryJob re-queues an errored job at the front of its stage queue.
func (s *Service) RetryJob(ctx context.Context, jobID int64) (JobView, error) {
	job, err := s.manager.RetryJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotRetryable) || errors.Is(err, queue.ErrJobNotFound) {
			return JobView{}, services.Wrap(services.ErrValidation, "api", "retry job", err.Error(), nil)
		}
		return JobView{}, err
	}
	return FromJob(job), nil
}

// RemoveJob deletes a single queued job. An in-flight job is refused so a
// running stage never loses its row; the owning project keeps whatever
// status it had.
func (s *Service) RemoveJob(ctx context.Context, jobID int64) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrNotFound, "api", "remove job", "no such job", nil)
	}
	if job.Status == queue.JobProcessing {
		return services.Wrap(services.ErrValidation, "api", "remove job", "job is currently processing", nil)
	}
	removed, err := s.store.RemoveJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "api", "remove job", "no such job", nil)
	}
	return nil
}

// ListJobs returns queue jobs, optionally restricted to one stage, annotated
// with their project titles.
func (s *Service) ListJobs(ctx context.Context, stageName string) ([]JobView, error) {
	var st queue.Stage
	if stageName != "" {
		parsed, err := parseStageName("list jobs", stageName)
		if err != nil {
			return nil, err
		}
		st = parsed
	}
	jobs, err := s.store.ListJobs(ctx, st)
	if err != nil {
		return nil, err
	}
	views := FromJobs(jobs)

	titles := make(map[int64]string)
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		titles[project.ID] = project.Title
	}
	for i := range views {
		views[i].ProjectTitle = titles[views[i].ProjectID]
	}
	return views, nil
}

// Status reports pipeline diagnostics for status displays.
func (s *Service) Status(ctx context.Context) StatusResponse {
	response := FromStatusSummary(s.manager.Status(ctx))
	response.DatabasePath = s.store.Path()
	return response
}
