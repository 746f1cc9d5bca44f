package document

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/queue"
)

type DocumentProcessor interface {
	// ExtractFile returns the text of an upload without condensing it.
	ExtractFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*ExtractedFile, error)
	ProcessFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, ratio float64) (*models.ProcessingTask, error)
	ProcessBatch(ctx context.Context, files []*multipart.FileHeader, ratio float64) ([]*models.ProcessingTask, error)
	GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	HandleDocument(ctx context.Context, task *queue.Task) error
	// GetResult opens the condensed text of a completed task.
	GetResult(ctx context.Context, taskID string) (io.ReadCloser, string, error)
	CancelTask(ctx context.Context, taskID string) error
	CleanupTasks(ctx context.Context) error
}

// ExtractedFile is the answer to an extraction request.
type ExtractedFile struct {
	Text     string `json:"text"`
	Pages    int    `json:"pages,omitempty"`
	Label    string `json:"label"`
	MimeType string `json:"mimeType"`
	Hash     string `json:"hash"`
}
