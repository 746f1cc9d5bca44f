package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/queue"
)

type fakeHandler struct {
	tasks []*queue.Task
	err   error
}

func (h *fakeHandler) HandleDocument(_ context.Context, task *queue.Task) error {
	h.tasks = append(h.tasks, task)
	return h.err
}

func (h *fakeHandler) CleanupTasks(context.Context) error { return nil }

func condenseTask(t *testing.T, task queue.Task) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(task)
	require.NoError(t, err)
	return asynq.NewTask(queue.TaskTypeCondenseDocument, payload)
}

func TestHandleCondense_Dispatches(t *testing.T) {
	h := &fakeHandler{}
	w := newCondenseWorker(nil, h, logger.NewNop())

	err := w.handleCondense(context.Background(), condenseTask(t, queue.Task{
		ID:      "t1",
		Payload: queue.DocumentPayload{FileKey: "uploads/t1.txt", Filename: "a.txt", Ratio: 0.5},
	}))
	require.NoError(t, err)

	require.Len(t, h.tasks, 1)
	assert.Equal(t, "t1", h.tasks[0].ID)
	assert.Equal(t, 0.5, h.tasks[0].Payload.Ratio)
}

func TestHandleCondense_PropagatesFailure(t *testing.T) {
	cause := errors.New("upstream down")
	w := newCondenseWorker(nil, &fakeHandler{err: cause}, logger.NewNop())

	err := w.handleCondense(context.Background(), condenseTask(t, queue.Task{
		ID:      "t1",
		Payload: queue.DocumentPayload{FileKey: "uploads/t1.txt"},
	}))
	assert.ErrorIs(t, err, cause)
}

func TestHandleCondense_RejectsBadPayloads(t *testing.T) {
	h := &fakeHandler{}
	w := newCondenseWorker(nil, h, logger.NewNop())

	err := w.handleCondense(context.Background(), asynq.NewTask(queue.TaskTypeCondenseDocument, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.handleCondense(context.Background(), condenseTask(t, queue.Task{ID: "t1"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	assert.Empty(t, h.tasks)
}

func TestNewCondenseWorker_RequiresRedis(t *testing.T) {
	_, err := NewCondenseWorker(&Config{}, &fakeHandler{}, logger.NewNop())
	assert.Error(t, err)
}
