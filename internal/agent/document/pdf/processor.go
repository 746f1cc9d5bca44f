package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/pkg/converters"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

const DefaultMaxPages = 2000

type Processor struct {
	engine   Engine
	maxPages int
	logger   logger.Logger
}

type Option func(*Processor)

// WithEngine replaces the ledongthuc-backed engine.
func WithEngine(e Engine) Option {
	return func(p *Processor) {
		p.engine = e
	}
}

// WithMaxPages caps the page count of accepted documents.
func WithMaxPages(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

func NewProcessor(log logger.Logger, opts ...Option) *Processor {
	p := &Processor{
		engine:   LedongthucEngine{},
		maxPages: DefaultMaxPages,
		logger:   log.Named("pdf"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) CanProcess(mimeType string) bool {
	return mimeType == models.MimePDF
}

// Extract reads the whole file, then walks pages 1..N one at a time. Each page
// contributes its fragments joined by a single space plus a trailing newline.
func (p *Processor) Extract(ctx context.Context, file models.UploadedFile, r io.Reader, sink status.Sink) (models.ExtractedDocument, error) {
	start := time.Now()
	sink.Status(fmt.Sprintf("Processing %s...", file.Name))

	doc, err := p.extract(ctx, file, r, sink)
	if err != nil {
		p.logger.Error("PDF extraction failed",
			logger.String("filename", file.Name),
			logger.Error(err),
		)
		sink.Status(fmt.Sprintf("Error: Could not process %s", file.Name))
		sink.Notify(err)
		return models.ExtractedDocument{}, err
	}

	p.logger.Info("PDF extraction completed",
		logger.String("filename", file.Name),
		logger.Int("pages", doc.Pages),
		logger.Int("bytes", len(doc.Text)),
		logger.Duration("elapsed", time.Since(start)),
	)
	sink.Status(fmt.Sprintf("%s (%s)", file.Name, converters.FormatBytes(int64(len(doc.Text)))))
	return doc, nil
}

func (p *Processor) extract(ctx context.Context, file models.UploadedFile, r io.Reader, sink status.Sink) (doc models.ExtractedDocument, err error) {
	pageNum := 0
	fail := func(cause error) error {
		return &models.ExtractionError{File: file.Name, Page: pageNum, Err: cause}
	}
	// The parser panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			doc = models.ExtractedDocument{}
			err = fail(fmt.Errorf("pdf engine panic: %v", rec))
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return doc, fail(fmt.Errorf("failed to read file: %w", err))
	}

	document, err := p.engine.Open(ctx, data)
	if err != nil {
		return doc, fail(err)
	}

	total := document.NumPage()
	if total > p.maxPages {
		return doc, fail(fmt.Errorf("document has %d pages, limit is %d", total, p.maxPages))
	}

	var text strings.Builder
	for pageNum = 1; pageNum <= total; pageNum++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.ExtractedDocument{}, fail(ctxErr)
		}

		sink.Progress(models.ExtractionProgress{
			Current: pageNum,
			Total:   total,
			Label:   fmt.Sprintf("Processing page %d/%d...", pageNum, total),
		})

		page, err := document.Page(ctx, pageNum)
		if err != nil {
			return models.ExtractedDocument{}, fail(err)
		}
		items, err := page.TextContent(ctx)
		if err != nil {
			return models.ExtractedDocument{}, fail(err)
		}

		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = item.Text
		}
		text.WriteString(strings.Join(parts, " "))
		text.WriteByte('\n')
	}
	pageNum = 0

	src := file
	return models.ExtractedDocument{
		Text:   text.String(),
		Source: &src,
		Pages:  total,
	}, nil
}
