package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"memberreports/internal/app"
	"memberreports/internal/config"
	"memberreports/internal/logger"
	"memberreports/internal/worker"
)

// Worker consumes purge requests and sweeps expired report files.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if cfg.QueueBackend == "memory" {
		logger.Warn("memory queue is process-local; purge requests from the api will not reach this worker")
	}

	w := worker.New(a.Queue, a.Ledger, a.Metrics, cfg.SweepInterval)
	if err := w.Run(ctx); err != nil {
		logger.Error("worker failed", "err", err)
		os.Exit(1)
	}
}
