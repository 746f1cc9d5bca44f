package document

import (
	"context"
	"sync"
	"time"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/queue"
)

// Extraction fills the first half of the progress bar, the request the rest.
const extractionShare = 0.5

// redisSink persists every pipeline update into the task's status record.
type redisSink struct {
	ctx    context.Context
	queue  queue.Queue
	logger logger.Logger

	mu     sync.Mutex
	status queue.TaskStatus
}

func newRedisSink(ctx context.Context, q queue.Queue, initial queue.TaskStatus, log logger.Logger) *redisSink {
	return &redisSink{
		ctx:    context.WithoutCancel(ctx),
		queue:  q,
		logger: log,
		status: initial,
	}
}

func (s *redisSink) update(fn func(st *queue.TaskStatus)) {
	s.mu.Lock()
	fn(&s.status)
	snapshot := s.status
	s.mu.Unlock()

	if err := s.queue.SaveStatus(s.ctx, &snapshot); err != nil {
		s.logger.Error("Failed to save task status",
			logger.String("taskId", snapshot.TaskID),
			logger.Error(err),
		)
	}
}

func (s *redisSink) Snapshot() queue.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *redisSink) Status(label string) {
	s.update(func(st *queue.TaskStatus) {
		st.Label = label
	})
}

func (s *redisSink) Progress(p models.ExtractionProgress) {
	s.update(func(st *queue.TaskStatus) {
		st.Label = p.Label
		if p.Total > 0 {
			st.Progress = extractionShare * float64(p.Current) / float64(p.Total)
		}
	})
}

func (s *redisSink) Busy(busy bool) {
	if !busy {
		return
	}
	s.update(func(st *queue.TaskStatus) {
		st.Label = "Condensing..."
		st.Progress = extractionShare
	})
}

func (s *redisSink) Notify(err error) {
	s.update(func(st *queue.TaskStatus) {
		st.Status = string(models.StatusFailed)
		st.Error = err.Error()
		st.FinishedAt = time.Now()
	})
}

func (s *redisSink) Result(p models.Presentation) {
	s.update(func(st *queue.TaskStatus) {
		st.Status = string(models.StatusCompleted)
		st.Progress = 1.0
		st.Label = "Done"
		st.Artifact = p.Download
		st.Result = &p
		st.FinishedAt = time.Now()
	})
}
