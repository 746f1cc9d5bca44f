package worker

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/queue"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	Queues        map[string]int
	// CleanupInterval is how often expired uploads and artifacts are
	// removed. Zero disables the sweep.
	CleanupInterval time.Duration
}

// DefaultQueues weights the queues the service enqueues to.
func DefaultQueues() map[string]int {
	return map[string]int{
		queue.QueueCritical: 6,
		queue.QueueDefault:  3,
		queue.QueueLow:      1,
	}
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.server.Shutdown()
	})
	return nil
}
