package models

import (
	"time"
)

// Declared MIME types the pipeline can extract.
const (
	MimePDF   = "application/pdf"
	MimePlain = "text/plain"
)

// Retention ratio bounds, inclusive.
const (
	MinRatio = 0.1
	MaxRatio = 1.0
)

// UploadedFile describes a selected file. It is replaced wholesale on the
// next selection.
type UploadedFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// ExtractionProgress is emitted once per PDF page.
type ExtractionProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Label   string `json:"label"`
}

// ExtractedDocument is the result of a single extraction.
type ExtractedDocument struct {
	Text   string        `json:"text"`
	Source *UploadedFile `json:"source,omitempty"`
	Pages  int           `json:"pages,omitempty"`
}

// CompressionRequest is what gets sent to the remote service.
type CompressionRequest struct {
	Text  string  `json:"text"`
	Ratio float64 `json:"ratio"`
}

// CompressionResult is produced by one successful request.
type CompressionResult struct {
	OriginalLength   int       `json:"originalLength"`
	ProcessedLength  int       `json:"processedLength"`
	ReductionPercent float64   `json:"reductionPercent"`
	Artifact         string    `json:"artifact"`
	CompletedAt      time.Time `json:"completedAt"`
}

// Presentation is the tuple handed to the presentation sink.
type Presentation struct {
	OriginalSize  string `json:"originalSize"`
	ProcessedSize string `json:"processedSize"`
	Reduction     string `json:"reduction"`
	Download      string `json:"download"`
}

// Session carries the pipeline state between stages. Stages take a Session
// by value and return the updated copy; a failed stage returns its input.
type Session struct {
	Text   string
	Source *UploadedFile
	Label  string
	Result *CompressionResult
}

// WithDocument returns a copy of s holding the extracted text.
func (s Session) WithDocument(doc ExtractedDocument, label string) Session {
	s.Text = doc.Text
	s.Source = doc.Source
	s.Label = label
	return s
}

// WithResult returns a copy of s holding the latest compression result.
func (s Session) WithResult(r CompressionResult) Session {
	s.Result = &r
	return s
}

// ProcessingTask is the externally visible state of a condense job.
type ProcessingTask struct {
	ID        string            `json:"id"`
	Status    ProcessingStatus  `json:"status"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Progress  float64           `json:"progress"`
	Label     string            `json:"label,omitempty"`
	Error     string            `json:"error,omitempty"`
	Result    *Presentation     `json:"result,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
	StatusCancelled ProcessingStatus = "cancelled"
)
