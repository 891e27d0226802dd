package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ProjectView describes a content project in a transport-friendly format.
type ProjectView struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Prompt         string          `json:"prompt"`
	ResourceID     string          `json:"resourceId,omitempty"`
	Status         string          `json:"status"`
	Content        string          `json:"content,omitempty"`
	VoiceManifest  json.RawMessage `json:"voiceManifest,omitempty"`
	RenderedAssets json.RawMessage `json:"renderedAssets,omitempty"`
	VideoFile      string          `json:"videoFile,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
}

// JobView describes a queue entry in a transport-friendly format.
type JobView struct {
	ID           int64           `json:"id"`
	Stage        string          `json:"stage"`
	ProjectID    int64           `json:"projectId"`
	ProjectTitle string          `json:"projectTitle,omitempty"`
	ResourceID   string          `json:"resourceId,omitempty"`
	VideoConfig  json.RawMessage `json:"videoConfig,omitempty"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
}

// StageQueueView summarizes one stage queue for status displays.
type StageQueueView struct {
	Stage    string         `json:"stage"`
	RunState string         `json:"runState"`
	Jobs     map[string]int `json:"jobs"`
}

// StageHealthView mirrors readiness reporting for pipeline stages.
type StageHealthView struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse aggregates pipeline runtime information for API consumers.
type StatusResponse struct {
	Running       bool              `json:"running"`
	LastError     string            `json:"lastError,omitempty"`
	Queues        []StageQueueView  `json:"queues"`
	ProjectStats  map[string]int    `json:"projectStats"`
	StageHealth   []StageHealthView `json:"stageHealth"`
	BusyResources []string          `json:"busyResources,omitempty"`
	DatabasePath  string            `json:"databasePath,omitempty"`
}

// ProjectListResponse wraps a collection of projects.
type ProjectListResponse struct {
	Projects []ProjectView `json:"projects"`
}

// JobListResponse wraps a collection of queue jobs.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}
