package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipcast-hq/clipcast-archiver/internal/app"
	"github.com/clipcast-hq/clipcast-archiver/internal/config"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "archiver failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("archiver starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archiver, err := app.NewArchiver(ctx, cfg, logger.Std())
	if err != nil {
		logger.ErrorObj("failed to initialize archiver", "error", err)
		return err
	}

	if err := archiver.Run(ctx); err != nil {
		return fmt.Errorf("archive pass: %w", err)
	}

	return nil
}
