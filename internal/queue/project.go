package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ProjectStatus is the union of all stage statuses a project moves through.
type ProjectStatus string

const (
	ProjectGenerating ProjectStatus = "generating"
	ProjectReady      ProjectStatus = "ready"
	ProjectProcessing ProjectStatus = "processing"
	ProjectVoiced     ProjectStatus = "voiced"
	ProjectRendering  ProjectStatus = "rendering"
	ProjectRendered   ProjectStatus = "rendered"
	ProjectError      ProjectStatus = "error"
)

var allProjectStatuses = []ProjectStatus{
	ProjectGenerating,
	ProjectReady,
	ProjectProcessing,
	ProjectVoiced,
	ProjectRendering,
	ProjectRendered,
	ProjectError,
}

// AllProjectStatuses returns the ordered list of known project statuses.
func AllProjectStatuses() []ProjectStatus {
	cp := make([]ProjectStatus, len(allProjectStatuses))
	copy(cp, allProjectStatuses)
	return cp
}

// ParseProjectStatus converts a string into a known ProjectStatus.
func ParseProjectStatus(value string) (ProjectStatus, bool) {
	normalized := ProjectStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allProjectStatuses {
		if status == normalized {
			return normalized, true
		}
	}
	return "", false
}

// ActiveStatus maps a stage to the project status shown while that stage's
// collaborator call is in flight.
func ActiveStatus(stage Stage) ProjectStatus {
	switch stage {
	case StageVoice:
		return ProjectProcessing
	case StageVideo:
		return ProjectRendering
	default:
		return ProjectGenerating
	}
}

// DoneStatus maps a stage to the project status reached on stage success.
func DoneStatus(stage Stage) ProjectStatus {
	switch stage {
	case StageText:
		return ProjectReady
	case StageVoice:
		return ProjectVoiced
	default:
		return ProjectRendered
	}
}

// VoiceSegment is one entry of a project's voice manifest: the text to speak
// and the voice to speak it with.
type VoiceSegment struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// RenderedAsset references one synthesized audio file produced by the voice stage.
type RenderedAsset struct {
	SegmentID string `json:"segment_id"`
	FileRef   string `json:"file_ref"`
}

// Project represents a content project persisted in SQLite. It is the unit of
// work traveling through the text, voice, and video stages.
type Project struct {
	ID                 int64
	Title              string
	Prompt             string
	ResourceID         string
	Status             ProjectStatus
	Content            string
	VoiceManifestJSON  string
	RenderedAssetsJSON string
	VideoFile          string
	ErrorMessage       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VoiceManifest decodes the project's voice manifest. A project with no
// manifest yields an empty slice.
func (p *Project) VoiceManifest() ([]VoiceSegment, error) {
	if strings.TrimSpace(p.VoiceManifestJSON) == "" {
		return nil, nil
	}
	var segments []VoiceSegment
	if err := json.Unmarshal([]byte(p.VoiceManifestJSON), &segments); err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}
	return segments, nil
}

// SetVoiceManifest encodes and stores the voice manifest. The manifest is
// immutable once the text stage succeeds; callers set it exactly once.
func (p *Project) SetVoiceManifest(segments []VoiceSegment) error {
	data, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode voice manifest: %w", err)
	}
	p.VoiceManifestJSON = string(data)
	return nil
}

// RenderedAssets decodes the voice-stage output consumed by the video stage.
func (p *Project) RenderedAssets() ([]RenderedAsset, error) {
	if strings.TrimSpace(p.RenderedAssetsJSON) == "" {
		return nil, nil
	}
	var assets []RenderedAsset
	if err := json.Unmarshal([]byte(p.RenderedAssetsJSON), &assets); err != nil {
		return nil, fmt.Errorf("decode rendered assets: %w", err)
	}
	return assets, nil
}

// SetRenderedAssets encodes and stores the voice-stage output.
func (p *Project) SetRenderedAssets(assets []RenderedAsset) error {
	data, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("encode rendered assets: %w", err)
	}
	p.RenderedAssetsJSON = string(data)
	return nil
}

// EligibleFor reports whether the project may be enqueued into the given stage.
func (p *Project) EligibleFor(stage Stage) bool {
	switch stage {
	case StageText:
		return p.Status == ProjectGenerating || p.Status == ProjectError
	case StageVoice:
		return p.Status == ProjectReady && strings.TrimSpace(p.VoiceManifestJSON) != ""
	case StageVideo:
		return p.Status == ProjectVoiced && strings.TrimSpace(p.RenderedAssetsJSON) != ""
	default:
		return false
	}
}

// SetFailed marks the project as errored with the given message.
func (p *Project) SetFailed(message string) {
	p.Status = ProjectError
	p.ErrorMessage = message
}
