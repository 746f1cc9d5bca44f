package agent

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/feichai0017/document-condenser/internal/agent/document"
	"github.com/feichai0017/document-condenser/internal/agent/document/pdf"
	"github.com/feichai0017/document-condenser/internal/agent/document/text"
	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Fallback when content sniffing is inconclusive.
var extToMIME = map[string]string{
	".pdf":  models.MimePDF,
	".txt":  models.MimePlain,
	".text": models.MimePlain,
	".md":   models.MimePlain,
	".log":  models.MimePlain,
}

// Resolver picks the extractor for a declared MIME type.
type Resolver struct {
	extractors []document.Extractor
	logger     logger.Logger
}

// NewResolver registers extractors in priority order. With none given it
// uses the PDF and plain text extractors.
func NewResolver(log logger.Logger, extractors ...document.Extractor) *Resolver {
	if len(extractors) == 0 {
		extractors = []document.Extractor{
			pdf.NewProcessor(log),
			text.NewProcessor(log),
		}
	}
	return &Resolver{
		extractors: extractors,
		logger:     log.Named("resolver"),
	}
}

// Resolve returns the extractor for mimeType. Parameters such as charset are
// ignored and matching is case-insensitive. Unknown or empty types yield
// *models.UnsupportedTypeError.
func (r *Resolver) Resolve(mimeType string) (document.Extractor, error) {
	normalized := NormalizeType(mimeType)

	r.logger.Debug("Resolving extractor",
		logger.String("declared", mimeType),
		logger.String("mimeType", normalized),
	)

	if normalized != "" {
		for _, ex := range r.extractors {
			if ex.CanProcess(normalized) {
				return ex, nil
			}
		}
	}

	r.logger.Warn("Unsupported file type", logger.String("mimeType", mimeType))
	return nil, &models.UnsupportedTypeError{MimeType: mimeType}
}

// NormalizeType strips parameters and folds case.
func NormalizeType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// DeclaredType guesses a MIME type for sources that do not carry one. head
// is the leading bytes of the file.
func DeclaredType(name string, head []byte) string {
	if len(head) > 0 {
		detected := mimetype.Detect(head)
		for m := detected; m != nil; m = m.Parent() {
			switch {
			case m.Is(models.MimePDF):
				return models.MimePDF
			case m.Is(models.MimePlain):
				return models.MimePlain
			}
		}
	}
	if mimeType, ok := extToMIME[strings.ToLower(filepath.Ext(name))]; ok {
		return mimeType
	}
	if len(head) > 0 {
		return NormalizeType(mimetype.Detect(head).String())
	}
	return ""
}
