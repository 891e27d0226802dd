package daemon_test

import (
	"context"
	"testing"

	"loom/internal/api"
	"loom/internal/daemon"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/testsupport"
	"loom/internal/workflow"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithHandlers(cfg, store, logging.NewNop(), workflow.StageSet{}, notifications.NewService(cfg))
	svc := api.NewService(cfg, mgr, logging.NewNop())
	d, err := daemon.New(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	status := d.Status(ctx)
	if !status.Running || status.PID == 0 {
		t.Fatalf("unexpected status %#v", status)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon stopped")
	}
	d.Stop()
}

func TestDaemonStatusWhileStopped(t *testing.T) {
	d := newDaemon(t)

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("expected stopped status")
	}
	if status.LockFilePath == "" || status.Pipeline.DatabasePath == "" {
		t.Fatalf("expected populated paths, got %#v", status)
	}
}
