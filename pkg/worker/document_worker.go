package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/queue"
)

// DocumentHandler runs condense jobs. The document service implements it.
type DocumentHandler interface {
	HandleDocument(ctx context.Context, task *queue.Task) error
	CleanupTasks(ctx context.Context) error
}

type CondenseWorker struct {
	BaseWorker
	handler  DocumentHandler
	interval time.Duration
}

func NewCondenseWorker(cfg *Config, handler DocumentHandler, log logger.Logger) (*CondenseWorker, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = DefaultQueues()
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("Task failed",
					logger.String("type", task.Type()),
					logger.Error(err),
				)
			}),
		},
	)

	w := newCondenseWorker(server, handler, log)
	w.interval = cfg.CleanupInterval
	return w, nil
}

func newCondenseWorker(server *asynq.Server, handler DocumentHandler, log logger.Logger) *CondenseWorker {
	w := &CondenseWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log.Named("worker"),
			stopChan: make(chan struct{}),
		},
		handler: handler,
	}
	w.mux.HandleFunc(queue.TaskTypeCondenseDocument, w.handleCondense)
	return w
}

func (w *CondenseWorker) handleCondense(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	if task.ID == "" || task.Payload.FileKey == "" {
		w.logger.Error("Invalid task data", logger.String("taskId", task.ID))
		return fmt.Errorf("invalid task data: missing required fields: %w", asynq.SkipRetry)
	}

	w.logger.Info("Processing condense task",
		logger.String("taskId", task.ID),
		logger.String("filename", task.Payload.Filename),
		logger.Float64("ratio", task.Payload.Ratio),
	)

	start := time.Now()
	if err := w.handler.HandleDocument(ctx, &task); err != nil {
		return err
	}

	w.logger.Info("Condense task finished",
		logger.String("taskId", task.ID),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (w *CondenseWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	if w.interval > 0 {
		go w.sweep(ctx)
	}

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopChan:
		}
	}()

	return nil
}

func (w *CondenseWorker) sweep(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.handler.CleanupTasks(ctx); err != nil {
				w.logger.Warn("Cleanup failed", logger.Error(err))
			}
		}
	}
}
