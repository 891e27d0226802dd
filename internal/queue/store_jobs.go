package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrProjectQueued indicates the project already has a job in some stage queue.
var ErrProjectQueued = errors.New("project already queued")

// ErrJobNotFound indicates a lookup for a job id with no row.
var ErrJobNotFound = errors.New("job not found")

// ErrJobNotRetryable indicates a retry attempt on a job that is not errored.
var ErrJobNotRetryable = errors.New("job is not in the error state")

// Enqueue appends a waiting job for the project at the back of the stage
// queue. A project can hold at most one job across all stages; enqueuing a
// project that is already queued fails with ErrProjectQueued.
func (s *Store) Enqueue(ctx context.Context, project *Project, stage Stage, videoConfigJSON string) (*Job, error) {
	if project == nil {
		return nil, errors.New("project is nil")
	}
	if !project.EligibleFor(stage) {
		return nil, fmt.Errorf("project %d status %q not eligible for %s stage", project.ID, project.Status, stage)
	}

	timestamp := nowUTC()
	var jobID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var maxKey sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(sort_key) FROM jobs WHERE stage = ?`, stage,
		).Scan(&maxKey); err != nil {
			return fmt.Errorf("read tail sort key: %w", err)
		}
		sortKey := int64(1)
		if maxKey.Valid {
			sortKey = maxKey.Int64 + 1
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (
                stage, project_id, resource_id, video_config_json,
                status, sort_key, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			stage,
			project.ID,
			nullableString(project.ResourceID),
			nullableString(videoConfigJSON),
			JobWaiting,
			sortKey,
			timestamp,
			timestamp,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrProjectQueued
			}
			return fmt.Errorf("insert job: %w", err)
		}
		jobID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, jobID)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		// SQLITE_CONSTRAINT family
		return coder.Code()%256 == 19
	}
	return false
}

// GetJob fetches a job by identifier. A missing job returns (nil, nil).
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// JobForProject returns the project's job in whichever stage holds it.
func (s *Store) JobForProject(ctx context.Context, projectID int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE project_id = ?`, projectID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("job for project: %w", err)
	}
	return job, nil
}

// NextEligible returns the frontmost waiting job in the stage whose resource is
// not currently busy. Jobs bound to busy resources are skipped without losing
// their queue position.
func (s *Store) NextEligible(ctx context.Context, stage Stage, busy []string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE stage = ? AND status = ?`
	args := []any{stage, JobWaiting}
	if len(busy) > 0 {
		query += ` AND (resource_id IS NULL OR resource_id NOT IN (` + makePlaceholders(len(busy)) + `))`
		for _, id := range busy {
			args = append(args, id)
		}
	}
	query += ` ORDER BY sort_key, id LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next eligible job: %w", err)
	}
	return job, nil
}

// MarkProcessing transitions a waiting job to processing and moves its project
// into the stage's active status.
func (s *Store) MarkProcessing(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	timestamp := nowUTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error_message = NULL, updated_at = ? WHERE id = ? AND status = ?`,
			JobProcessing, timestamp, job.ID, JobWaiting,
		)
		if err != nil {
			return fmt.Errorf("mark job processing: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("job %d is not waiting", job.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
			ActiveStatus(job.Stage), timestamp, job.ProjectID,
		); err != nil {
			return fmt.Errorf("mark project active: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	job.Status = JobProcessing
	job.ErrorMessage = ""
	return nil
}

// FailJob records a stage failure: the job stays in its queue with status
// error and the project enters the error state carrying the same message.
func (s *Store) FailJob(ctx context.Context, job *Job, message string) error {
	if job == nil {
		return errors.New("job is nil")
	}
	timestamp := nowUTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
			JobError, nullableString(message), timestamp, job.ID,
		); err != nil {
			return fmt.Errorf("mark job errored: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
			ProjectError, nullableString(message), timestamp, job.ProjectID,
		); err != nil {
			return fmt.Errorf("mark project errored: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	job.Status = JobError
	job.ErrorMessage = message
	return nil
}

// Completion describes a successful stage run ready to commit.
type Completion struct {
	Job     *Job
	Project *Project
	// VideoConfigJSON is carried onto the chained job when the next stage is video.
	VideoConfigJSON string
}

// CompleteAndChain commits a stage success atomically: the project advances to
// the stage's done status with its new outputs, the finished job leaves its
// queue, and when a later stage exists a waiting job is appended to it. Either
// every effect lands or none do.
func (s *Store) CompleteAndChain(ctx context.Context, completion Completion) (*Job, error) {
	job := completion.Job
	project := completion.Project
	if job == nil || project == nil {
		return nil, errors.New("completion requires job and project")
	}

	project.Status = DoneStatus(job.Stage)
	project.ErrorMessage = ""
	timestamp := nowUTC()
	next, chain := NextStage(job.Stage)

	var nextJobID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects
             SET title = ?, status = ?, content = ?, voice_manifest_json = ?,
                 rendered_assets_json = ?, video_file = ?, error_message = NULL, updated_at = ?
             WHERE id = ?`,
			project.Title,
			project.Status,
			nullableString(project.Content),
			nullableString(project.VoiceManifestJSON),
			nullableString(project.RenderedAssetsJSON),
			nullableString(project.VideoFile),
			timestamp,
			project.ID,
		); err != nil {
			return fmt.Errorf("advance project: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, job.ID); err != nil {
			return fmt.Errorf("remove finished job: %w", err)
		}

		if !chain {
			return nil
		}

		var maxKey sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(sort_key) FROM jobs WHERE stage = ?`, next,
		).Scan(&maxKey); err != nil {
			return fmt.Errorf("read tail sort key: %w", err)
		}
		sortKey := int64(1)
		if maxKey.Valid {
			sortKey = maxKey.Int64 + 1
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (
                stage, project_id, resource_id, video_config_json,
                status, sort_key, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			next,
			project.ID,
			nullableString(project.ResourceID),
			nullableString(completion.VideoConfigJSON),
			JobWaiting,
			sortKey,
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("chain next job: %w", err)
		}
		nextJobID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !chain {
		return nil, nil
	}
	return s.GetJob(ctx, nextJobID)
}

// RetryJob moves an errored job back to the front of its stage queue and
// returns the project to the status it held before the stage ran.
func (s *Store) RetryJob(ctx context.Context, jobID int64) (*Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %d: %w", jobID, ErrJobNotFound)
	}
	if job.Status != JobError {
		return nil, fmt.Errorf("job %d status %q: %w", jobID, job.Status, ErrJobNotRetryable)
	}

	timestamp := nowUTC()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var minKey sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MIN(sort_key) FROM jobs WHERE stage = ?`, job.Stage,
		).Scan(&minKey); err != nil {
			return fmt.Errorf("read head sort key: %w", err)
		}
		sortKey := int64(0)
		if minKey.Valid {
			sortKey = minKey.Int64 - 1
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error_message = NULL, sort_key = ?, updated_at = ? WHERE id = ?`,
			JobWaiting, sortKey, timestamp, job.ID,
		); err != nil {
			return fmt.Errorf("requeue job: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
			pendingStatus(job.Stage), timestamp, job.ProjectID,
		); err != nil {
			return fmt.Errorf("reset project status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, job.ID)
}

// pendingStatus is the project status while a stage job waits in queue.
func pendingStatus(stage Stage) ProjectStatus {
	switch stage {
	case StageVoice:
		return ProjectReady
	case StageVideo:
		return ProjectVoiced
	default:
		return ProjectGenerating
	}
}

// ResetStuckProcessing returns jobs left in the processing state by an unclean
// shutdown to waiting, keeping their queue position, and resets their projects
// to the stage's pending status. It returns the number of jobs recovered.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	jobs, err := s.ListJobs(ctx, "", JobProcessing)
	if err != nil {
		return 0, err
	}
	var recovered int64
	for _, job := range jobs {
		timestamp := nowUTC()
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
				JobWaiting, timestamp, job.ID, JobProcessing,
			); err != nil {
				return fmt.Errorf("recover job: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
				pendingStatus(job.Stage), timestamp, job.ProjectID,
			); err != nil {
				return fmt.Errorf("recover project: %w", err)
			}
			return nil
		})
		if err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

// ListJobs returns jobs ordered by queue position, optionally filtered by
// stage (empty stage means all stages) and status set.
func (s *Store) ListJobs(ctx context.Context, stage Stage, statuses ...JobStatus) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var (
		clauses []string
		args    []any
	)
	if stage != "" {
		clauses = append(clauses, `stage = ?`)
		args = append(args, stage)
	}
	if len(statuses) > 0 {
		clauses = append(clauses, `status IN (`+makePlaceholders(len(statuses))+`)`)
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY stage, sort_key, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// RemoveJob deletes a job by identifier without touching its project.
func (s *Store) RemoveJob(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearStage removes jobs from a stage queue, optionally restricted to a
// status set.
func (s *Store) ClearStage(ctx context.Context, stage Stage, statuses ...JobStatus) (int64, error) {
	query := `DELETE FROM jobs WHERE stage = ?`
	args := []any{stage}
	if len(statuses) > 0 {
		query += ` AND status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear stage: %w", err)
	}
	return res.RowsAffected()
}

// StageStats counts jobs per status within a stage.
func (s *Store) StageStats(ctx context.Context, stage Stage) (map[JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM jobs WHERE stage = ? GROUP BY status`, stage)
	if err != nil {
		return nil, fmt.Errorf("stage stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[JobStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[JobStatus(status)] = count
	}
	return stats, rows.Err()
}
