package api

import (
	"encoding/json"
	"slices"

	"loom/internal/queue"
	"loom/internal/workflow"
)

// FromProject converts a project record to its API representation.
func FromProject(project *queue.Project) ProjectView {
	if project == nil {
		return ProjectView{}
	}

	dto := ProjectView{
		ID:           project.ID,
		Title:        project.Title,
		Prompt:       project.Prompt,
		ResourceID:   project.ResourceID,
		Status:       string(project.Status),
		Content:      project.Content,
		VideoFile:    project.VideoFile,
		ErrorMessage: project.ErrorMessage,
	}
	if raw := project.VoiceManifestJSON; raw != "" {
		dto.VoiceManifest = json.RawMessage(raw)
	}
	if raw := project.RenderedAssetsJSON; raw != "" {
		dto.RenderedAssets = json.RawMessage(raw)
	}
	if !project.CreatedAt.IsZero() {
		dto.CreatedAt = project.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !project.UpdatedAt.IsZero() {
		dto.UpdatedAt = project.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromProjects converts a slice of project records into API DTOs.
func FromProjects(projects []*queue.Project) []ProjectView {
	if len(projects) == 0 {
		return nil
	}
	out := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		out = append(out, FromProject(project))
	}
	return out
}

// FromJob converts a queue job to its API representation.
func FromJob(job *queue.Job) JobView {
	if job == nil {
		return JobView{}
	}

	dto := JobView{
		ID:           job.ID,
		Stage:        string(job.Stage),
		ProjectID:    job.ProjectID,
		ResourceID:   job.ResourceID,
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
	}
	if raw := job.VideoConfigJSON; raw != "" {
		dto.VideoConfig = json.RawMessage(raw)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue jobs into API DTOs.
func FromJobs(jobs []*queue.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to an API payload.
func FromStatusSummary(summary workflow.StatusSummary) StatusResponse {
	queues := make([]StageQueueView, 0, len(summary.Stages))
	for _, st := range queue.AllStages() {
		status, ok := summary.Stages[st]
		if !ok {
			continue
		}
		jobs := make(map[string]int, len(status.Jobs))
		for jobStatus, count := range status.Jobs {
			jobs[string(jobStatus)] = count
		}
		queues = append(queues, StageQueueView{
			Stage:    string(st),
			RunState: string(status.RunState),
			Jobs:     jobs,
		})
	}

	healthNames := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		healthNames = append(healthNames, name)
	}
	slices.Sort(healthNames)
	health := make([]StageHealthView, 0, len(healthNames))
	for _, name := range healthNames {
		h := summary.StageHealth[name]
		health = append(health, StageHealthView{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}

	stats := make(map[string]int, len(summary.ProjectStats))
	for status, count := range summary.ProjectStats {
		stats[string(status)] = count
	}

	return StatusResponse{
		Running:       summary.Running,
		LastError:     summary.LastError,
		Queues:        queues,
		ProjectStats:  stats,
		StageHealth:   health,
		BusyResources: summary.BusyResources,
	}
}
