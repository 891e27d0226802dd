package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateProject inserts a new project in the generating state.
func (s *Store) CreateProject(ctx context.Context, title, prompt, resourceID string) (*Project, error) {
	timestamp := nowUTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO projects (
            title, prompt, resource_id, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		title,
		prompt,
		nullableString(resourceID),
		ProjectGenerating,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetProject(ctx, id)
}

// GetProject fetches a project by identifier. A missing project returns (nil, nil).
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// UpdateProject persists changes to an existing project.
func (s *Store) UpdateProject(ctx context.Context, project *Project) error {
	if project == nil {
		return errors.New("project is nil")
	}
	project.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE projects
         SET title = ?, prompt = ?, resource_id = ?, status = ?, content = ?,
             voice_manifest_json = ?, rendered_assets_json = ?, video_file = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		project.Title,
		project.Prompt,
		nullableString(project.ResourceID),
		project.Status,
		nullableString(project.Content),
		nullableString(project.VoiceManifestJSON),
		nullableString(project.RenderedAssetsJSON),
		nullableString(project.VideoFile),
		nullableString(project.ErrorMessage),
		project.UpdatedAt.Format(time.RFC3339Nano),
		project.ID,
	); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// ListProjects returns projects filtered by status set (or all projects when no
// status is provided), oldest first.
func (s *Store) ListProjects(ctx context.Context, statuses ...ProjectStatus) ([]*Project, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + projectColumns + ` FROM projects`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, via cascade, any job referencing it.
func (s *Store) DeleteProject(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ProjectStats returns a count of projects per status.
func (s *Store) ProjectStats(ctx context.Context) (map[ProjectStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM projects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[ProjectStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[ProjectStatus(status)] = count
	}
	return stats, rows.Err()
}
