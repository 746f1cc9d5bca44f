package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/document-condenser/internal/models"
)

const TaskTypeCondenseDocument = "condense:document"

// Queue names by priority.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

var queueNames = []string{QueueCritical, QueueDefault, QueueLow}

// ErrTaskNotFound is returned when neither a status record nor a queued task
// exists for an ID.
var ErrTaskNotFound = errors.New("task not found")

type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *TaskStatus) error
	DeleteStatus(ctx context.Context, taskID string) error
}

// Task is the queued unit of work.
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Payload   DocumentPayload   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// DocumentPayload points at a stored upload and the requested ratio.
type DocumentPayload struct {
	FileKey  string  `json:"fileKey"`
	Filename string  `json:"filename"`
	MimeType string  `json:"mimeType"`
	Size     int64   `json:"size"`
	Ratio    float64 `json:"ratio"`
}

// TaskStatus is the record kept in redis for each task.
type TaskStatus struct {
	TaskID     string               `json:"taskId"`
	Status     string               `json:"status"`
	Progress   float64              `json:"progress"`
	Label      string               `json:"label,omitempty"`
	Error      string               `json:"error,omitempty"`
	Artifact   string               `json:"artifact,omitempty"`
	Result     *models.Presentation `json:"result,omitempty"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt,omitempty"`
}

type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	config    *QueueConfig
}

type QueueConfig struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ProcessTimeout time.Duration
	StatusTTL      time.Duration
}

func (c *QueueConfig) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func NewAsynqQueue(cfg *QueueConfig) (*AsynqQueue, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 30 * time.Minute
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 24 * time.Hour
	}

	redisOpt := cfg.RedisOpt()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
		config:    cfg,
	}, nil
}

// Enqueue submits task once. Failed jobs are not retried.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(q.config.ProcessTimeout),
		asynq.TaskID(task.ID),
		asynq.Queue(queueFor(task.Priority)),
		asynq.Retention(q.config.StatusTTL),
	}

	t := asynq.NewTask(task.Type, payload, opts...)
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = info.ID

	return nil
}

func queueFor(priority int) string {
	switch priority {
	case 1:
		return QueueCritical
	case 2:
		return QueueDefault
	default:
		return QueueLow
	}
}

func statusKey(taskID string) string {
	return fmt.Sprintf("task_status:%s", taskID)
}

// GetTaskStatus prefers the redis record and falls back to asking asynq.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	switch {
	case err == nil:
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	for _, queueName := range queueNames {
		info, err := q.inspector.GetTaskInfo(queueName, taskID)
		if err == nil {
			return convertAsynqStatus(info), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// CancelTask removes a task that has not started and marks it cancelled.
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	var lastErr error
	for _, queueName := range queueNames {
		err := q.inspector.DeleteTask(queueName, taskID)
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to cancel task: %w", lastErr)
	}

	status, err := q.GetTaskStatus(ctx, taskID)
	if err != nil {
		status = &TaskStatus{TaskID: taskID, StartedAt: time.Now()}
	}
	status.Status = string(models.StatusCancelled)
	status.FinishedAt = time.Now()
	return q.SaveStatus(ctx, status)
}

func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, q.config.StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

// DeleteStatus drops the status record. A missing record is not an error.
func (q *AsynqQueue) DeleteStatus(ctx context.Context, taskID string) error {
	if err := q.redis.Del(ctx, statusKey(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close(), q.redis.Close())
}

func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
	}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled:
		status.Status = string(models.StatusPending)
	case asynq.TaskStateActive:
		status.Status = string(models.StatusRunning)
	case asynq.TaskStateCompleted:
		status.Status = string(models.StatusCompleted)
		status.Progress = 1.0
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Status = string(models.StatusFailed)
		status.Error = info.LastErr
		status.FinishedAt = info.LastFailedAt
	default:
		status.Status = string(models.StatusPending)
	}

	return status
}
