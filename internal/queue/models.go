package queue

import (
	"strings"
	"time"
)

// Stage identifies one of the three pipeline queues.
type Stage string

const (
	StageText  Stage = "text"
	StageVoice Stage = "voice"
	StageVideo Stage = "video"
)

var allStages = []Stage{StageText, StageVoice, StageVideo}

// AllStages returns the ordered list of pipeline stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StageText, StageVoice, StageVideo:
		return normalized, true
	default:
		return "", false
	}
}

// NextStage returns the stage a successful job chains into, if any.
func NextStage(stage Stage) (Stage, bool) {
	switch stage {
	case StageText:
		return StageVoice, true
	case StageVoice:
		return StageVideo, true
	default:
		return "", false
	}
}

// JobStatus represents the lifecycle of a queue job. Successful jobs are
// removed from the queue instead of being marked done.
type JobStatus string

const (
	JobWaiting    JobStatus = "waiting"
	JobProcessing JobStatus = "processing"
	JobError      JobStatus = "error"
)

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	normalized := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case JobWaiting, JobProcessing, JobError:
		return normalized, true
	default:
		return "", false
	}
}

// RunState represents the persisted run state of one stage queue.
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStatePaused  RunState = "paused"
	RunStateStopped RunState = "stopped"
)

// ParseRunState converts a string into a known RunState.
func ParseRunState(value string) (RunState, bool) {
	normalized := RunState(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RunStateRunning, RunStatePaused, RunStateStopped:
		return normalized, true
	default:
		return "", false
	}
}

// Job represents a queue entry persisted in SQLite. A job wraps exactly one
// project for one stage; the project id is carried end-to-end so chaining
// never relies on title correlation.
type Job struct {
	ID              int64
	Stage           Stage
	ProjectID       int64
	ResourceID      string
	VideoConfigJSON string
	Status          JobStatus
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequiresResource reports whether dispatching the job must hold a resource lock.
func (j Job) RequiresResource() bool {
	return strings.TrimSpace(j.ResourceID) != ""
}
