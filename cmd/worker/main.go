package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feichai0017/document-condenser/config"
	"github.com/feichai0017/document-condenser/internal/service/document"
	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/worker"
)

func main() {
	cfg := config.GetServerConfig()

	outputs := []string{"stdout"}
	if cfg.LogFile != "" {
		outputs = append(outputs, cfg.LogFile)
	}
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths(outputs),
		logger.WithField("service", "condenser-worker"),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docService, q, err := document.GetService(ctx, log)
	if err != nil {
		log.Error("Failed to create document service", logger.Error(err))
		os.Exit(1)
	}
	defer q.Close()

	condenseWorker, err := worker.NewCondenseWorker(&worker.Config{
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		Concurrency:     cfg.WorkerConcurrency,
		Queues:          worker.DefaultQueues(),
		CleanupInterval: time.Hour,
	}, docService, log)
	if err != nil {
		log.Error("Failed to create condense worker", logger.Error(err))
		os.Exit(1)
	}

	if err := condenseWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", cfg.WorkerConcurrency))

	<-ctx.Done()
	log.Info("Shutting down worker...")
	condenseWorker.Stop()
	log.Info("Worker stopped")
}
