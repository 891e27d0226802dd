package selection_test

import (
	"context"
	"testing"

	"loom/internal/queue"
	"loom/internal/selection"
	"loom/internal/testsupport"
)

func readyProject(t *testing.T, store *queue.Store, title string) *queue.Project {
	t.Helper()
	ctx := context.Background()
	project := testsupport.NewProject(t, store, title, "prompt", "")
	project.Status = queue.ProjectReady
	if err := project.SetVoiceManifest([]queue.VoiceSegment{
		{ID: "intro", Text: "hello", VoiceID: "narrator"},
	}); err != nil {
		t.Fatalf("SetVoiceManifest failed: %v", err)
	}
	if err := store.UpdateProject(ctx, project); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	return project
}

func TestCommitEnqueuesInRegistryOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := selection.NewManager(store)

	first := readyProject(t, store, "First")
	second := readyProject(t, store, "Second")

	// Select in reverse order; commit still follows registry order.
	mgr.Select(queue.StageVoice, second.ID)
	mgr.Select(queue.StageVoice, first.ID)

	jobs, err := mgr.Commit(context.Background(), queue.StageVoice, "")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ProjectID != first.ID || jobs[1].ProjectID != second.ID {
		t.Fatalf("unexpected order %#v", jobs)
	}
	if mgr.Selected(queue.StageVoice) != 0 {
		t.Fatal("expected selection cleared after commit")
	}
}

func TestCommitSkipsIneligibleSilently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := selection.NewManager(store)

	eligible := readyProject(t, store, "Eligible")
	stale := testsupport.NewProject(t, store, "Stale", "prompt", "")

	mgr.Select(queue.StageVoice, eligible.ID)
	mgr.Select(queue.StageVoice, stale.ID)

	jobs, err := mgr.Commit(context.Background(), queue.StageVoice, "")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ProjectID != eligible.ID {
		t.Fatalf("expected only eligible project enqueued, got %#v", jobs)
	}
}

func TestSelectAllMarksEligibleOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := selection.NewManager(store)

	readyProject(t, store, "Ready")
	testsupport.NewProject(t, store, "Generating", "prompt", "")

	if err := mgr.SelectAll(context.Background(), queue.StageVoice); err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if got := mgr.Selected(queue.StageVoice); got != 1 {
		t.Fatalf("expected 1 selected, got %d", got)
	}
}

func TestDeselectAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := selection.NewManager(store)

	project := readyProject(t, store, "Pick")
	mgr.Select(queue.StageVoice, project.ID)
	mgr.Deselect(queue.StageVoice, project.ID)
	if mgr.Selected(queue.StageVoice) != 0 {
		t.Fatal("expected empty selection after deselect")
	}

	mgr.Select(queue.StageVideo, project.ID)
	mgr.Clear(queue.StageVideo)
	if mgr.Selected(queue.StageVideo) != 0 {
		t.Fatal("expected empty selection after clear")
	}
}
