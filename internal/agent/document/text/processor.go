package text

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/pkg/converters"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Processor reads plain text files. Bytes are decoded as UTF-8 with invalid
// sequences replaced by U+FFFD.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{logger: log.Named("text")}
}

func (p *Processor) CanProcess(mimeType string) bool {
	return mimeType == models.MimePlain
}

func (p *Processor) Extract(ctx context.Context, file models.UploadedFile, r io.Reader, sink status.Sink) (models.ExtractedDocument, error) {
	data, err := io.ReadAll(r)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		extErr := &models.ExtractionError{File: file.Name, Err: fmt.Errorf("failed to read file: %w", err)}
		p.logger.Error("Text extraction failed",
			logger.String("filename", file.Name),
			logger.Error(err),
		)
		sink.Status(fmt.Sprintf("Error: Could not read %s", file.Name))
		sink.Notify(extErr)
		return models.ExtractedDocument{}, extErr
	}

	text := string(data)
	if !utf8.Valid(data) {
		p.logger.Warn("Replacing invalid UTF-8 sequences",
			logger.String("filename", file.Name),
		)
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}

	sink.Status(fmt.Sprintf("%s (%s)", file.Name, converters.FormatBytes(int64(len(text)))))
	src := file
	return models.ExtractedDocument{Text: text, Source: &src}, nil
}
