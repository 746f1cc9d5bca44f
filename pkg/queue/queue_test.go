package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-condenser/internal/models"
)

func newTestQueue(t *testing.T) (*AsynqQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := NewAsynqQueue(&QueueConfig{RedisAddr: mr.Addr(), StatusTTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q, mr
}

func TestAsynqQueue_StatusRoundTrip(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	status := &TaskStatus{
		TaskID:   "task-1",
		Status:   string(models.StatusRunning),
		Progress: 0.25,
		Label:    "Processing page 1/4...",
		Metadata: map[string]string{"filename": "report.pdf"},
	}
	require.NoError(t, q.SaveStatus(ctx, status))
	assert.Equal(t, time.Hour, mr.TTL("task_status:task-1"))

	got, err := q.GetTaskStatus(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "running", got.Status)
	assert.Equal(t, 0.25, got.Progress)
	assert.Equal(t, "Processing page 1/4...", got.Label)
	assert.Equal(t, "report.pdf", got.Metadata["filename"])
}

func TestAsynqQueue_DeleteStatus(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.SaveStatus(ctx, &TaskStatus{TaskID: "task-1", Status: string(models.StatusPending)}))
	require.NoError(t, q.DeleteStatus(ctx, "task-1"))
	assert.False(t, mr.Exists("task_status:task-1"))

	require.NoError(t, q.DeleteStatus(ctx, "task-1"), "deleting twice is fine")
}

func TestAsynqQueue_UnknownTask(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.GetTaskStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAsynqQueue_CorruptStatus(t *testing.T) {
	q, mr := newTestQueue(t)
	require.NoError(t, mr.Set("task_status:bad", "{not json"))

	_, err := q.GetTaskStatus(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to unmarshal status")
}

func TestNewAsynqQueue_Defaults(t *testing.T) {
	_, err := NewAsynqQueue(&QueueConfig{})
	assert.Error(t, err)

	cfg := &QueueConfig{RedisAddr: "localhost:6379"}
	q, err := NewAsynqQueue(cfg)
	require.NoError(t, err)
	defer q.Close()
	assert.Equal(t, 30*time.Minute, cfg.ProcessTimeout)
	assert.Equal(t, 24*time.Hour, cfg.StatusTTL)
}

func TestQueueFor(t *testing.T) {
	assert.Equal(t, QueueCritical, queueFor(1))
	assert.Equal(t, QueueDefault, queueFor(2))
	assert.Equal(t, QueueLow, queueFor(0))
}

func TestConvertAsynqStatus(t *testing.T) {
	done := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		state asynq.TaskState
		want  string
	}{
		{asynq.TaskStatePending, "pending"},
		{asynq.TaskStateScheduled, "pending"},
		{asynq.TaskStateActive, "running"},
		{asynq.TaskStateCompleted, "completed"},
		{asynq.TaskStateArchived, "failed"},
	}
	for _, tt := range tests {
		got := convertAsynqStatus(&asynq.TaskInfo{ID: "t", State: tt.state, CompletedAt: done, LastErr: "boom"})
		assert.Equal(t, tt.want, got.Status, tt.state.String())
	}

	failed := convertAsynqStatus(&asynq.TaskInfo{ID: "t", State: asynq.TaskStateArchived, LastErr: "boom"})
	assert.Equal(t, "boom", failed.Error)
}
