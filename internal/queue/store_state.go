package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RunStateFor returns the persisted run state for a stage queue. Stages with
// no persisted state default to stopped.
func (s *Store) RunStateFor(ctx context.Context, stage Stage) (RunState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_state FROM queue_state WHERE stage = ?`, stage)
	var raw string
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return RunStateStopped, nil
	}
	if err != nil {
		return "", fmt.Errorf("read run state: %w", err)
	}
	state, ok := ParseRunState(raw)
	if !ok {
		return RunStateStopped, nil
	}
	return state, nil
}

// SetRunState persists the run state for a stage queue so it survives restarts.
func (s *Store) SetRunState(ctx context.Context, stage Stage, state RunState) error {
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO queue_state (stage, run_state, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(stage) DO UPDATE SET run_state = excluded.run_state, updated_at = excluded.updated_at`,
		stage, state, nowUTC(),
	); err != nil {
		return fmt.Errorf("set run state: %w", err)
	}
	return nil
}

// RunStates returns the run state of every stage queue.
func (s *Store) RunStates(ctx context.Context) (map[Stage]RunState, error) {
	states := make(map[Stage]RunState, len(AllStages()))
	for _, stage := range AllStages() {
		state, err := s.RunStateFor(ctx, stage)
		if err != nil {
			return nil, err
		}
		states[stage] = state
	}
	return states, nil
}
