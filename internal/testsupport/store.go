package testsupport

import (
	"context"
	"testing"

	"loom/internal/config"
	"loom/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, store *queue.Store, title, prompt, resourceID string) *queue.Project {
	t.Helper()

	project, err := store.CreateProject(context.Background(), title, prompt, resourceID)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return project
}

// EnqueueText creates a project and places a waiting text job for it.
func EnqueueText(t testing.TB, store *queue.Store, title, prompt, resourceID string) (*queue.Project, *queue.Job) {
	t.Helper()

	project := NewProject(t, store, title, prompt, resourceID)
	job, err := store.Enqueue(context.Background(), project, queue.StageText, "")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return project, job
}
