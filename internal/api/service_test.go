package api_test

import (
	"context"
	"errors"
	"testing"

	"loom/internal/api"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/testsupport"
	"loom/internal/workflow"
)

func newService(t *testing.T) (*api.Service, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithHandlers(cfg, store, logging.NewNop(), workflow.StageSet{}, notifications.NewService(cfg))
	return api.NewService(cfg, mgr, logging.NewNop()), store
}

func voicedProject(t *testing.T, store *queue.Store, title string) *queue.Project {
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

func TestCreateProjectDerivesTitleAndQueuesText(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	result, err := svc.CreateProject(ctx, api.CreateProjectRequest{
		Prompt: "explain how tides work for a short documentary",
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if result.Project.Title != "Explain How Tides Work For A Short Documentary" {
		t.Fatalf("unexpected derived title %q", result.Project.Title)
	}
	if result.Project.Status != string(queue.ProjectGenerating) {
		t.Fatalf("expected generating status, got %q", result.Project.Status)
	}
	if result.Job.Stage != string(queue.StageText) || result.Job.Status != string(queue.JobWaiting) {
		t.Fatalf("expected waiting text job, got %#v", result.Job)
	}

	job, err := store.GetJob(ctx, result.Job.ID)
	if err != nil || job == nil {
		t.Fatalf("expected persisted job, got %v / %v", job, err)
	}
}

func TestCreateProjectRejectsEmptyPrompt(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateProject(context.Background(), api.CreateProjectRequest{Title: "No Prompt"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListProjectsRejectsUnknownStatus(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.ListProjects(context.Background(), "bogus"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnqueueVoiceAllTakesEligibleOnly(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	eligible := voicedProject(t, store, "Eligible")
	testsupport.NewProject(t, store, "Still Generating", "prompt", "")

	jobs, err := svc.EnqueueVoice(ctx, nil, true)
	if err != nil {
		t.Fatalf("EnqueueVoice failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ProjectID != eligible.ID {
		t.Fatalf("expected one voice job for eligible project, got %#v", jobs)
	}
	if jobs[0].Stage != string(queue.StageVoice) {
		t.Fatalf("unexpected stage %q", jobs[0].Stage)
	}
}

func TestEnqueueVideoValidatesConfig(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.EnqueueVideo(context.Background(), []int64{1}, false, "{not json")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnqueueVideoAttachesConfig(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	project := voicedProject(t, store, "Voiced")
	project.Status = queue.ProjectVoiced
	if err := project.SetRenderedAssets([]queue.RenderedAsset{
		{SegmentID: "intro", FileRef: "audio/intro.wav"},
	}); err != nil {
		t.Fatalf("SetRenderedAssets failed: %v", err)
	}
	if err := store.UpdateProject(ctx, project); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}

	jobs, err := svc.EnqueueVideo(ctx, []int64{project.ID}, false, `{"preset":"1080p"}`)
	if err != nil {
		t.Fatalf("EnqueueVideo failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected one video job, got %d", len(jobs))
	}
	if string(jobs[0].VideoConfig) != `{"preset":"1080p"}` {
		t.Fatalf("expected config on job, got %q", jobs[0].VideoConfig)
	}
}

func TestQueueControlRejectsUnknownStage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.StartQueue(ctx, "render"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.ClearQueue(ctx, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRetryJobClassifiesBadRequests(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	if _, err := svc.RetryJob(ctx, 42); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing job, got %v", err)
	}

	_, job := testsupport.EnqueueText(t, store, "Waiting", "prompt", "")
	if _, err := svc.RetryJob(ctx, job.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for waiting job, got %v", err)
	}
}

func TestDeleteProjectRefusesInFlight(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	project, job := testsupport.EnqueueText(t, store, "Busy", "prompt", "")
	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := svc.DeleteProject(ctx, project.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	idle, _ := testsupport.EnqueueText(t, store, "Idle", "prompt", "")
	if err := svc.DeleteProject(ctx, idle.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := svc.DescribeProject(ctx, idle.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListJobsAnnotatesTitles(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, _ = testsupport.EnqueueText(t, store, "Titled", "prompt", "")

	jobs, err := svc.ListJobs(ctx, "text")
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ProjectTitle != "Titled" {
		t.Fatalf("expected annotated job, got %#v", jobs)
	}
}

func TestStatusIncludesQueuesAndDatabasePath(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	testsupport.EnqueueText(t, store, "Pending", "prompt", "")

	status := svc.Status(ctx)
	if status.DatabasePath != store.Path() {
		t.Fatalf("expected database path %q, got %q", store.Path(), status.DatabasePath)
	}
	if len(status.Queues) != len(queue.AllStages()) {
		t.Fatalf("expected %d queues, got %d", len(queue.AllStages()), len(status.Queues))
	}
	if status.ProjectStats[string(queue.ProjectGenerating)] != 1 {
		t.Fatalf("expected one generating project, got %#v", status.ProjectStats)
	}
}

func TestRemoveJobRefusesInFlight(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, job := testsupport.EnqueueText(t, store, "Busy", "prompt", "")
	if err := store.MarkProcessing(ctx, job); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	if err := svc.RemoveJob(ctx, job.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	kept, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if kept == nil || kept.Status != queue.JobProcessing {
		t.Fatalf("expected in-flight job to survive removal, got %#v", kept)
	}
}
