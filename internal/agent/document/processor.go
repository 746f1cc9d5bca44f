package document

import (
	"context"
	"io"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/status"
)

// Extractor turns one uploaded file into text.
type Extractor interface {
	// CanProcess reports whether the extractor handles the declared type.
	CanProcess(mimeType string) bool

	// Extract reads the file to completion and returns its text. On failure
	// it reports to sink and returns a *models.ExtractionError; no partial
	// document is returned.
	Extract(ctx context.Context, file models.UploadedFile, r io.Reader, sink status.Sink) (models.ExtractedDocument, error)
}
