package queue_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"loom/internal/queue"
	"loom/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, err := store.CreateProject(ctx, "Sample Project", "write about sampling", "acct-1")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.ID == 0 {
		t.Fatal("expected project ID to be assigned")
	}
	if project.Status != queue.ProjectGenerating {
		t.Fatalf("expected generating status, got %q", project.Status)
	}

	fetched, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Sample Project" {
		t.Fatalf("unexpected fetched project: %#v", fetched)
	}
}

func TestEnqueueRejectsSecondJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, job := testsupport.EnqueueText(t, store, "One Queue", "prompt", "")
	if job.Status != queue.JobWaiting {
		t.Fatalf("expected waiting job, got %q", job.Status)
	}

	if _, err := store.Enqueue(ctx, project, queue.StageText, ""); !errors.Is(err, queue.ErrProjectQueued) {
		t.Fatalf("expected ErrProjectQueued, got %v", err)
	}
}

func TestNextEligibleKeepsFIFOOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var jobs []*queue.Job
	for i := 0; i < 3; i++ {
		_, job := testsupport.EnqueueText(t, store, fmt.Sprintf("Project %d", i), "prompt", "")
		jobs = append(jobs, job)
	}

	next, err := store.NextEligible(ctx, queue.StageText, nil)
	if err != nil {
		t.Fatalf("NextEligible failed: %v", err)
	}
	if next == nil || next.ID != jobs[0].ID {
		t.Fatalf("expected first enqueued job, got %#v", next)
	}
}

func TestNextEligibleSkipsBusyResources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	_, first := testsupport.EnqueueText(t, store, "Held", "prompt", "acct-busy")
	_, second := testsupport.EnqueueText(t, store, "Free", "prompt", "acct-free")

	next, err := store.NextEligible(ctx, queue.StageText, []string{"acct-busy"})
	if err != nil {
		t.Fatalf("NextEligible failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected job %d past busy resource, got %#v", second.ID, next)
	}

	// Once the resource frees up the skipped job regains its place at the front.
	next, err = store.NextEligible(ctx, queue.StageText, nil)
	if err != nil {
		t.Fatalf("NextEligible failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected original front job, got %#v", next)
	}
}

func TestMarkProcessingMovesProjectToActiveStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, job := testsupport.EnqueueText(t, store, "Active", "prompt", "")

	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if job.Status != queue.JobProcessing {
		t.Fatalf("expected processing job, got %q", job.Status)
	}

	refreshed, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if refreshed.Status != queue.ProjectGenerating {
		t.Fatalf("expected generating project, got %q", refreshed.Status)
	}

	// Double processing of the same job is rejected.
	if err := store.MarkProcessing(ctx, job); err == nil {
		t.Fatal("expected error marking a processing job again")
	}
}

func TestFailJobPropagatesToProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, job := testsupport.EnqueueText(t, store, "Failing", "prompt", "")
	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.FailJob(ctx, job, "generation timed out"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	refreshed, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if refreshed.Status != queue.ProjectError {
		t.Fatalf("expected error project, got %q", refreshed.Status)
	}
	if refreshed.ErrorMessage != "generation timed out" {
		t.Fatalf("unexpected error message %q", refreshed.ErrorMessage)
	}

	stored, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if stored.Status != queue.JobError {
		t.Fatalf("expected errored job, got %q", stored.Status)
	}
}

func TestCompleteAndChainAdvancesStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, job := testsupport.EnqueueText(t, store, "Chained", "prompt", "")
	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	project.Content = "generated text"
	if err := project.SetVoiceManifest([]queue.VoiceSegment{{ID: "s1", Text: "hello", VoiceID: "narrator"}}); err != nil {
		t.Fatalf("SetVoiceManifest failed: %v", err)
	}

	next, err := store.CompleteAndChain(ctx, queue.Completion{Job: job, Project: project})
	if err != nil {
		t.Fatalf("CompleteAndChain failed: %v", err)
	}
	if next == nil || next.Stage != queue.StageVoice {
		t.Fatalf("expected chained voice job, got %#v", next)
	}
	if next.Status != queue.JobWaiting {
		t.Fatalf("expected waiting chained job, got %q", next.Status)
	}

	if old, err := store.GetJob(ctx, job.ID); err != nil || old != nil {
		t.Fatalf("expected finished job removed, got %#v err=%v", old, err)
	}

	refreshed, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if refreshed.Status != queue.ProjectReady {
		t.Fatalf("expected ready project, got %q", refreshed.Status)
	}
	segments, err := refreshed.VoiceManifest()
	if err != nil || len(segments) != 1 {
		t.Fatalf("unexpected manifest %#v err=%v", segments, err)
	}
}

func TestCompleteAndChainFinalStageLeavesNoJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Final", "prompt", "")
	project.Status = queue.ProjectVoiced
	if err := project.SetRenderedAssets([]queue.RenderedAsset{{SegmentID: "s1", FileRef: "audio/s1.wav"}}); err != nil {
		t.Fatalf("SetRenderedAssets failed: %v", err)
	}
	if err := store.UpdateProject(ctx, project); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}

	job, err := store.Enqueue(ctx, project, queue.StageVideo, `{"resolution":"1080p"}`)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	project.VideoFile = "final/video.mp4"
	next, err := store.CompleteAndChain(ctx, queue.Completion{Job: job, Project: project})
	if err != nil {
		t.Fatalf("CompleteAndChain failed: %v", err)
	}
	if next != nil {
		t.Fatalf("expected no chained job after video stage, got %#v", next)
	}

	refreshed, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if refreshed.Status != queue.ProjectRendered {
		t.Fatalf("expected rendered project, got %q", refreshed.Status)
	}
	if refreshed.VideoFile != "final/video.mp4" {
		t.Fatalf("unexpected video file %q", refreshed.VideoFile)
	}
}

func TestRetryJobReturnsToFront(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	_, failing := testsupport.EnqueueText(t, store, "Retry Me", "prompt", "")
	testsupport.EnqueueText(t, store, "Waiting Behind", "prompt", "")

	if err := store.MarkProcessing(ctx, failing); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.FailJob(ctx, failing, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	retried, err := store.RetryJob(ctx, failing.ID)
	if err != nil {
		t.Fatalf("RetryJob failed: %v", err)
	}
	if retried.Status != queue.JobWaiting {
		t.Fatalf("expected waiting job, got %q", retried.Status)
	}

	next, err := store.NextEligible(ctx, queue.StageText, nil)
	if err != nil {
		t.Fatalf("NextEligible failed: %v", err)
	}
	if next == nil || next.ID != failing.ID {
		t.Fatalf("expected retried job at front, got %#v", next)
	}

	project, err := store.GetProject(ctx, retried.ProjectID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if project.Status != queue.ProjectGenerating {
		t.Fatalf("expected generating project after retry, got %q", project.Status)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	_, job := testsupport.EnqueueText(t, store, "Interrupted", "prompt", "")
	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	recovered, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered job, got %d", recovered)
	}

	stored, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if stored.Status != queue.JobWaiting {
		t.Fatalf("expected waiting job after recovery, got %q", stored.Status)
	}
}

func TestRunStatePersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	state, err := store.RunStateFor(ctx, queue.StageVoice)
	if err != nil {
		t.Fatalf("RunStateFor failed: %v", err)
	}
	if state != queue.RunStateStopped {
		t.Fatalf("expected stopped default, got %q", state)
	}

	if err := store.SetRunState(ctx, queue.StageVoice, queue.RunStateRunning); err != nil {
		t.Fatalf("SetRunState failed: %v", err)
	}
	states, err := store.RunStates(ctx)
	if err != nil {
		t.Fatalf("RunStates failed: %v", err)
	}
	if states[queue.StageVoice] != queue.RunStateRunning {
		t.Fatalf("expected running voice stage, got %q", states[queue.StageVoice])
	}
	if states[queue.StageText] != queue.RunStateStopped {
		t.Fatalf("expected stopped text stage, got %q", states[queue.StageText])
	}
}

func TestClearStageRemovesErroredOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	_, errored := testsupport.EnqueueText(t, store, "Broken", "prompt", "")
	testsupport.EnqueueText(t, store, "Healthy", "prompt", "")

	if err := store.MarkProcessing(ctx, errored); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.FailJob(ctx, errored, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	removed, err := store.ClearStage(ctx, queue.StageText, queue.JobError)
	if err != nil {
		t.Fatalf("ClearStage failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed job, got %d", removed)
	}

	remaining, err := store.ListJobs(ctx, queue.StageText)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Status != queue.JobWaiting {
		t.Fatalf("unexpected remaining jobs %#v", remaining)
	}
}
