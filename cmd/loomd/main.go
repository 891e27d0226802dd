package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"loom/internal/config"
	"loom/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("loomd exited with error", logging.Error(err))
		log.Fatalf("loomd: %v", err)
	}
}
