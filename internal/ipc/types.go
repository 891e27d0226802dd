package ipc

import "loom/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// ProjectView mirrors the API project DTO for IPC callers.
type ProjectView = api.ProjectView

// JobView mirrors the API job DTO for IPC callers.
type JobView = api.JobView

// StatusResponse represents combined daemon and pipeline status information.
type StatusResponse struct {
	Running  bool               `json:"running"`
	PID      int                `json:"pid"`
	Pipeline api.StatusResponse `json:"pipeline"`
	LockPath string             `json:"lock_path"`
	LogPath  string             `json:"log_path"`
}

// ProjectCreateRequest submits a new prompt.
type ProjectCreateRequest = api.CreateProjectRequest

// ProjectCreateResponse reports the stored project and queued text job.
type ProjectCreateResponse = api.CreateProjectResult

// ProjectListRequest filters project listing by status names.
type ProjectListRequest struct {
	Statuses []string `json:"statuses"`
}

// ProjectListResponse contains projects.
type ProjectListResponse struct {
	Projects []ProjectView `json:"projects"`
}

// ProjectDescribeRequest fetches a single project by id.
type ProjectDescribeRequest struct {
	ID int64 `json:"id"`
}

// ProjectDescribeResponse contains a single project.
type ProjectDescribeResponse struct {
	Project ProjectView `json:"project"`
}

// ProjectDeleteRequest removes a project by id.
type ProjectDeleteRequest struct {
	ID int64 `json:"id"`
}

// ProjectDeleteResponse confirms project removal.
type ProjectDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// EnqueueVoiceRequest queues ready projects for voice synthesis.
type EnqueueVoiceRequest struct {
	IDs []int64 `json:"ids"`
	All bool    `json:"all"`
}

// EnqueueVideoRequest queues voiced projects for rendering.
type EnqueueVideoRequest struct {
	IDs         []int64 `json:"ids"`
	All         bool    `json:"all"`
	VideoConfig string  `json:"video_config"`
}

// EnqueueResponse reports the jobs created by a bulk enqueue.
type EnqueueResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobListRequest lists queue jobs, optionally for a single stage.
type JobListRequest struct {
	Stage string `json:"stage"`
}

// JobListResponse contains queue jobs.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// QueueControlRequest names the stage queue a control verb applies to.
type QueueControlRequest struct {
	Stage string `json:"stage"`
}

// QueueControlResponse confirms a queue control verb.
type QueueControlResponse struct {
	OK bool `json:"ok"`
}

// QueueClearResponse reports the number of removed jobs.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// JobRetryRequest retries one errored job.
type JobRetryRequest struct {
	ID int64 `json:"id"`
}

// JobRetryResponse reports the requeued job.
type JobRetryResponse struct {
	Job JobView `json:"job"`
}

// JobRemoveRequest removes one queued job.
type JobRemoveRequest struct {
	ID int64 `json:"id"`
}

// JobRemoveResponse confirms job removal.
type JobRemoveResponse struct {
	Removed bool `json:"removed"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
