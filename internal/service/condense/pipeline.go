package condense

import (
	"context"
	"fmt"
	"io"

	"github.com/feichai0017/document-condenser/internal/agent/document"
	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/pkg/converters"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Resolver maps a declared MIME type to an extractor.
type Resolver interface {
	Resolve(mimeType string) (document.Extractor, error)
}

// Pipeline loads a selected file into a session and submits it.
type Pipeline struct {
	resolver     Resolver
	orchestrator *Orchestrator
	sink         status.Sink
	logger       logger.Logger
}

func NewPipeline(resolver Resolver, orchestrator *Orchestrator, sink status.Sink, log logger.Logger) *Pipeline {
	return &Pipeline{
		resolver:     resolver,
		orchestrator: orchestrator,
		sink:         sink,
		logger:       log.Named("pipeline"),
	}
}

// Load extracts file into the session text buffer. The previous result is
// kept until the next successful submit. On failure sess is returned as is.
func (p *Pipeline) Load(ctx context.Context, sess models.Session, file models.UploadedFile, r io.Reader) (models.Session, error) {
	extractor, err := p.resolver.Resolve(file.MimeType)
	if err != nil {
		p.sink.Status(fmt.Sprintf("Error: Unsupported file type for %s", file.Name))
		p.sink.Notify(err)
		return sess, err
	}

	doc, err := extractor.Extract(ctx, file, r, p.sink)
	if err != nil {
		return sess, err
	}

	p.logger.Info("Source loaded",
		logger.String("filename", file.Name),
		logger.String("mimeType", file.MimeType),
		logger.Int("bytes", len(doc.Text)),
	)
	return sess.WithDocument(doc, SizeLabel(file.Name, len(doc.Text))), nil
}

// SetText replaces the buffer with typed text.
func (p *Pipeline) SetText(sess models.Session, text string) models.Session {
	return sess.WithDocument(models.ExtractedDocument{Text: text}, "")
}

// Submit forwards to the orchestrator.
func (p *Pipeline) Submit(ctx context.Context, sess models.Session, ratio float64) (models.Session, error) {
	return p.orchestrator.Submit(ctx, sess, ratio)
}

// Run loads file and submits it in one go.
func (p *Pipeline) Run(ctx context.Context, sess models.Session, file models.UploadedFile, r io.Reader, ratio float64) (models.Session, error) {
	loaded, err := p.Load(ctx, sess, file, r)
	if err != nil {
		return sess, err
	}
	return p.Submit(ctx, loaded, ratio)
}

// SizeLabel is the status label shown after a successful extraction.
func SizeLabel(name string, size int) string {
	return fmt.Sprintf("%s (%s)", name, converters.FormatBytes(int64(size)))
}
