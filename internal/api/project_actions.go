package api

import (
	"context"
	"encoding/json"
	"strings"

	"loom/internal/logging"
	"loom/internal/queue"
	"loom/internal/services"
)

// CreateProjectRequest carries the inputs for submitting a new prompt.
type CreateProjectRequest struct {
	Title      string `json:"title"`
	Prompt     string `json:"prompt"`
	ResourceID string `json:"resourceId"`
}

// CreateProjectResult reports the stored project and its queued text job.
type CreateProjectResult struct {
	Project ProjectView `json:"project"`
	Job     JobView     `json:"job"`
}

// CreateProject registers a prompt and places it at the tail of the text
// queue. A blank title is derived from the prompt's opening words.
func (s *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (CreateProjectResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return CreateProjectResult{}, services.Wrap(services.ErrValidation, "api", "create project", "prompt must not be empty", nil)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DeriveTitle(prompt)
	}

	project, err := s.store.CreateProject(ctx, title, prompt, strings.TrimSpace(req.ResourceID))
	if err != nil {
		return CreateProjectResult{}, err
	}
	job, err := s.store.Enqueue(ctx, project, queue.StageText, "")
	if err != nil {
		return CreateProjectResult{}, err
	}
	s.manager.Kick(queue.StageText)

	s.logger.Info("project created",
		logging.Int64(logging.FieldProjectID, project.ID),
		logging.String("title", project.Title),
		logging.String(logging.FieldEventType, "project_created"),
	)
	return CreateProjectResult{Project: FromProject(project), Job: FromJob(job)}, nil
}

// ListProjects returns projects, optionally filtered by status names.
func (s *Service) ListProjects(ctx context.Context, statuses ...string) ([]ProjectView, error) {
	parsed := make([]queue.ProjectStatus, 0, len(statuses))
	for _, raw := range statuses {
		status, ok := queue.ParseProjectStatus(raw)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "api", "list projects", "unknown status "+raw, nil)
		}
		parsed = append(parsed, status)
	}
	projects, err := s.store.ListProjects(ctx, parsed...)
	if err != nil {
		return nil, err
	}
	return FromProjects(projects), nil
}

// DescribeProject fetches a single project.
func (s *Service) DescribeProject(ctx context.Context, id int64) (*ProjectView, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "describe project", "no such project", nil)
	}
	dto := FromProject(project)
	return &dto, nil
}

// DeleteProject removes a project and its queued job. Projects with an
// in-flight job are refused so a running stage never loses its row.
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	job, err := s.store.JobForProject(ctx, id)
	if err != nil {
		return err
	}
	if job != nil && job.Status == queue.JobProcessing {
		return services.Wrap(services.ErrValidation, "api", "delete project", "project is currently processing", nil)
	}
	deleted, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return services.Wrap(services.ErrNotFound, "api", "delete project", "no such project", nil)
	}
	return nil
}

// EnqueueVoice queues ready projects for voice synthesis. With all set, every
// eligible project is taken; otherwise only the listed ids. Ineligible or
// already-queued projects are skipped without error.
func (s *Service) EnqueueVoice(ctx context.Context, ids []int64, all bool) ([]JobView, error) {
	return s.enqueueBulk(ctx, queue.StageVoice, ids, all, "")
}

// EnqueueVideo queues voiced projects for rendering, attaching the provided
// render configuration to each created job.
func (s *Service) EnqueueVideo(ctx context.Context, ids []int64, all bool, videoConfigJSON string) ([]JobView, error) {
	videoConfigJSON = strings.TrimSpace(videoConfigJSON)
	if videoConfigJSON != "" && !json.Valid([]byte(videoConfigJSON)) {
		return nil, services.Wrap(services.ErrValidation, "api", "enqueue video", "render config is not valid JSON", nil)
	}
	return s.enqueueBulk(ctx, queue.StageVideo, ids, all, videoConfigJSON)
}

func (s *Service) enqueueBulk(ctx context.Context, st queue.Stage, ids []int64, all bool, videoConfigJSON string) ([]JobView, error) {
	if all {
		if err := s.bulk.SelectAll(ctx, st); err != nil {
			return nil, err
		}
	} else {
		if len(ids) == 0 {
			return nil, services.Wrap(services.ErrValidation, "api", "enqueue "+string(st), "no projects selected", nil)
		}
		for _, id := range ids {
			s.bulk.Select(st, id)
		}
	}

	jobs, err := s.bulk.Commit(ctx, st, videoConfigJSON)
	if err != nil {
		return nil, err
	}
	if len(jobs) > 0 {
		s.manager.Kick(st)
	}
	s.logger.Info("projects queued",
		logging.String(logging.FieldStage, string(st)),
		logging.Int("count", len(jobs)),
		logging.String(logging.FieldEventType, "bulk_enqueue"),
	)
	return FromJobs(jobs), nil
}
