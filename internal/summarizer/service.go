// Package summarizer implements the compression service behind POST /process:
// sentence-aware chunking, a bounded pool of upstream calls and reassembly.
package summarizer

import (
	"context"
	"strings"
	"time"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

type Service struct {
	pool      *Pool
	chunkSize int
	logger    logger.Logger
}

func NewService(pool *Pool, chunkSize int, log logger.Logger) *Service {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Service{
		pool:      pool,
		chunkSize: chunkSize,
		logger:    log.Named("summarizer"),
	}
}

// Condense reduces text to about ratio of its length in words. Chunk
// results are joined by blank lines.
func (s *Service) Condense(ctx context.Context, text string, ratio float64) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &models.ValidationError{Field: "text", Message: "empty input"}
	}
	if err := models.ValidateRatio(ratio); err != nil {
		return "", err
	}

	start := time.Now()
	chunks := ChunkText(text, s.chunkSize)
	s.logger.Info("Condensing text",
		logger.Int("words", len(strings.Fields(text))),
		logger.Int("chunks", len(chunks)),
		logger.Float64("ratio", ratio),
	)

	results, err := s.pool.Run(ctx, chunks, ratio)
	if err != nil {
		return "", err
	}

	out := strings.Join(results, "\n\n")
	s.logger.Info("Text condensed",
		logger.Int("inputWords", len(strings.Fields(text))),
		logger.Int("outputWords", len(strings.Fields(out))),
		logger.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
