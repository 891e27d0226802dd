// Package resource tracks which external accounts are currently held by an
// in-flight text generation. The tracker is in-memory only; the workflow
// manager rebuilds it from processing jobs after a restart.
package resource

import "sync"

// Tracker records busy resources keyed by resource identifier.
type Tracker struct {
	mu      sync.Mutex
	holders map[string]int64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{holders: make(map[string]int64)}
}

// Acquire marks the resource as held by the given job. It reports false when
// the resource is already held by another job.
func (t *Tracker) Acquire(resourceID string, jobID int64) bool {
	if resourceID == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if holder, ok := t.holders[resourceID]; ok && holder != jobID {
		return false
	}
	t.holders[resourceID] = jobID
	return true
}

// Release frees the resource if the given job holds it.
func (t *Tracker) Release(resourceID string, jobID int64) {
	if resourceID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if holder, ok := t.holders[resourceID]; ok && holder == jobID {
		delete(t.holders, resourceID)
	}
}

// Busy returns the identifiers of all currently held resources.
func (t *Tracker) Busy() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.holders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t.holders))
	for id := range t.holders {
		ids = append(ids, id)
	}
	return ids
}

// Holder returns the job holding the resource, if any.
func (t *Tracker) Holder(resourceID string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	holder, ok := t.holders[resourceID]
	return holder, ok
}
