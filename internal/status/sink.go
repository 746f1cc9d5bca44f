// Package status is the write-only channel the pipeline reports into.
package status

import (
	"sync"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Sink receives status updates from extraction and submission. Notify is the
// blocking notification for a failed operation and fires once per failure.
type Sink interface {
	Status(label string)
	Progress(p models.ExtractionProgress)
	Busy(busy bool)
	Notify(err error)
	Result(p models.Presentation)
}

// Discard drops every update.
var Discard Sink = discard{}

type discard struct{}

func (discard) Status(string)                      {}
func (discard) Progress(models.ExtractionProgress) {}
func (discard) Busy(bool)                          {}
func (discard) Notify(error)                       {}
func (discard) Result(models.Presentation)         {}

// LogSink writes every update to a logger.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log.Named("status")}
}

func (s *LogSink) Status(label string) {
	s.log.Info("Status changed", logger.String("label", label))
}

func (s *LogSink) Progress(p models.ExtractionProgress) {
	s.log.Debug("Extraction progress",
		logger.Int("current", p.Current),
		logger.Int("total", p.Total),
		logger.String("label", p.Label),
	)
}

func (s *LogSink) Busy(busy bool) {
	s.log.Debug("Busy indicator", logger.Bool("busy", busy))
}

func (s *LogSink) Notify(err error) {
	s.log.Error("Operation failed", logger.Error(err))
}

func (s *LogSink) Result(p models.Presentation) {
	s.log.Info("Result ready",
		logger.String("original", p.OriginalSize),
		logger.String("processed", p.ProcessedSize),
		logger.String("reduction", p.Reduction),
		logger.String("download", p.Download),
	)
}

// Multi fans updates out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Status(label string) {
	for _, s := range m {
		s.Status(label)
	}
}

func (m multi) Progress(p models.ExtractionProgress) {
	for _, s := range m {
		s.Progress(p)
	}
}

func (m multi) Busy(busy bool) {
	for _, s := range m {
		s.Busy(busy)
	}
}

func (m multi) Notify(err error) {
	for _, s := range m {
		s.Notify(err)
	}
}

func (m multi) Result(p models.Presentation) {
	for _, s := range m {
		s.Result(p)
	}
}

// Recorder keeps every update in memory. Safe for concurrent use.
type Recorder struct {
	mu            sync.Mutex
	Labels        []string
	Progresses    []models.ExtractionProgress
	BusyStates    []bool
	Notifications []error
	Results       []models.Presentation
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Status(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Labels = append(r.Labels, label)
}

func (r *Recorder) Progress(p models.ExtractionProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progresses = append(r.Progresses, p)
}

func (r *Recorder) Busy(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BusyStates = append(r.BusyStates, busy)
}

func (r *Recorder) Notify(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications = append(r.Notifications, err)
}

func (r *Recorder) Result(p models.Presentation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, p)
}

// IsBusy reports the last busy state, false if none was recorded.
func (r *Recorder) IsBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.BusyStates) == 0 {
		return false
	}
	return r.BusyStates[len(r.BusyStates)-1]
}

// LastLabel returns the most recent status label.
func (r *Recorder) LastLabel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Labels) == 0 {
		return ""
	}
	return r.Labels[len(r.Labels)-1]
}

// NotificationCount returns how many failures were notified.
func (r *Recorder) NotificationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Notifications)
}

// ResultCount returns how many results were published.
func (r *Recorder) ResultCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Results)
}
