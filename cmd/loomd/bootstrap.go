package main

import (
	"context"
	"fmt"
	"log/slog"

	"loom/internal/api"
	"loom/internal/config"
	"loom/internal/daemon"
	"loom/internal/ipc"
	"loom/internal/logging"
	"loom/internal/queue"
	"loom/internal/workflow"
)

// run wires the store, workflow manager, API service, daemon, and IPC server,
// then blocks until the process receives a termination signal.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open pipeline store: %w", err)
	}

	manager := workflow.NewManager(cfg, store, logger)
	service := api.NewService(cfg, manager, logger)

	d, err := daemon.New(cfg, service, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	logger.Info("loomd shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}
