// Package selection tracks user-marked project subsets for batch enqueue into
// the voice and video queues.
package selection

import (
	"context"
	"errors"
	"sync"

	"loom/internal/queue"
)

// Manager holds one selection set per target stage. Set mutations are pure
// in-memory operations; only Commit touches the store.
type Manager struct {
	mu       sync.Mutex
	store    *queue.Store
	selected map[queue.Stage]map[int64]struct{}
}

// NewManager constructs an empty selection manager over the store.
func NewManager(store *queue.Store) *Manager {
	return &Manager{
		store:    store,
		selected: make(map[queue.Stage]map[int64]struct{}),
	}
}

func (m *Manager) set(st queue.Stage) map[int64]struct{} {
	s, ok := m.selected[st]
	if !ok {
		s = make(map[int64]struct{})
		m.selected[st] = s
	}
	return s
}

// Select marks a project for the stage's next commit.
func (m *Manager) Select(st queue.Stage, projectID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(st)[projectID] = struct{}{}
}

// Deselect removes a project from the stage's selection.
func (m *Manager) Deselect(st queue.Stage, projectID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.set(st), projectID)
}

// SelectAll marks every project currently eligible for the stage.
func (m *Manager) SelectAll(ctx context.Context, st queue.Stage) error {
	projects, err := m.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.set(st)
	for _, project := range projects {
		if project.EligibleFor(st) {
			s[project.ID] = struct{}{}
		}
	}
	return nil
}

// Clear empties the stage's selection without enqueueing anything.
func (m *Manager) Clear(st queue.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.selected, st)
}

// Selected returns the number of projects marked for the stage.
func (m *Manager) Selected(st queue.Stage) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selected[st])
}

// Commit enqueues every selected, currently-eligible project into the stage
// queue in registry order, then clears the selection. Projects that lost
// eligibility or are already queued are skipped silently.
func (m *Manager) Commit(ctx context.Context, st queue.Stage, videoConfigJSON string) ([]*queue.Job, error) {
	m.mu.Lock()
	picked := m.selected[st]
	delete(m.selected, st)
	m.mu.Unlock()

	if len(picked) == 0 {
		return nil, nil
	}

	projects, err := m.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []*queue.Job
	for _, project := range projects {
		if _, ok := picked[project.ID]; !ok {
			continue
		}
		if !project.EligibleFor(st) {
			continue
		}
		job, err := m.store.Enqueue(ctx, project, st, videoConfigJSON)
		if err != nil {
			if errors.Is(err, queue.ErrProjectQueued) {
				continue
			}
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
