package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

func TestMulti_FansOutInOrder(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	s := Multi(a, b, Discard)

	s.Status("Processing report.pdf...")
	s.Progress(models.ExtractionProgress{Current: 1, Total: 2, Label: "Processing page 1/2..."})
	s.Busy(true)
	s.Busy(false)
	s.Notify(errors.New("boom"))
	s.Result(models.Presentation{Reduction: "60.0%"})

	for _, r := range []*Recorder{a, b} {
		assert.Equal(t, "Processing report.pdf...", r.LastLabel())
		assert.Len(t, r.Progresses, 1)
		assert.Equal(t, []bool{true, false}, r.BusyStates)
		assert.False(t, r.IsBusy())
		assert.Equal(t, 1, r.NotificationCount())
		assert.Equal(t, 1, r.ResultCount())
	}
}

func TestLogSink_LogsFailures(t *testing.T) {
	log := logger.NewTestLogger()
	s := NewLogSink(log)

	s.Status("ready")
	s.Notify(errors.New("service unreachable"))

	assert.Equal(t, []string{"Status changed"}, log.Messages("INFO"))
	assert.Equal(t, []string{"Operation failed"}, log.Messages("ERROR"))
}

func TestRecorder_EmptyDefaults(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.IsBusy())
	assert.Equal(t, "", r.LastLabel())
	assert.Zero(t, r.NotificationCount())
}
