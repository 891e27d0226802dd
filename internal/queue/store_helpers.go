package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const projectColumns = "id, title, prompt, resource_id, status, content, voice_manifest_json, rendered_assets_json, video_file, error_message, created_at, updated_at"

const jobColumns = "id, stage, project_id, resource_id, video_config_json, status, error_message, sort_key, created_at, updated_at"

func scanProject(scanner interface{ Scan(dest ...any) error }) (*Project, error) {
	var (
		id             int64
		title          string
		prompt         string
		resourceID     sql.NullString
		statusStr      string
		content        sql.NullString
		voiceManifest  sql.NullString
		renderedAssets sql.NullString
		videoFile      sql.NullString
		errorMessage   sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&prompt,
		&resourceID,
		&statusStr,
		&content,
		&voiceManifest,
		&renderedAssets,
		&videoFile,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	project := &Project{
		ID:                 id,
		Title:              title,
		Prompt:             prompt,
		ResourceID:         resourceID.String,
		Status:             ProjectStatus(statusStr),
		Content:            content.String,
		VoiceManifestJSON:  voiceManifest.String,
		RenderedAssetsJSON: renderedAssets.String,
		VideoFile:          videoFile.String,
		ErrorMessage:       errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		project.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		project.UpdatedAt = updated
	}
	return project, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		stageStr     string
		projectID    int64
		resourceID   sql.NullString
		videoConfig  sql.NullString
		statusStr    string
		errorMessage sql.NullString
		sortKey      int64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stageStr,
		&projectID,
		&resourceID,
		&videoConfig,
		&statusStr,
		&errorMessage,
		&sortKey,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		Stage:           Stage(stageStr),
		ProjectID:       projectID,
		ResourceID:      resourceID.String,
		VideoConfigJSON: videoConfig.String,
		Status:          JobStatus(statusStr),
		ErrorMessage:    errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
