package summarizer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/document-condenser/pkg/logger"
)

// DefaultMaxConcurrent bounds parallel upstream calls.
const DefaultMaxConcurrent = 10

// Pool condenses chunks in parallel and keeps their order.
type Pool struct {
	upstream      Upstream
	maxConcurrent int
	logger        logger.Logger
}

func NewPool(upstream Upstream, maxConcurrent int, log logger.Logger) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Pool{
		upstream:      upstream,
		maxConcurrent: maxConcurrent,
		logger:        log.Named("pool"),
	}
}

// Run returns one result per chunk, in chunk order. The first failure
// cancels the remaining calls.
func (p *Pool) Run(ctx context.Context, chunks []string, ratio float64) ([]string, error) {
	results := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := p.upstream.Condense(gctx, chunk, TargetWords(chunk, ratio))
			if err != nil {
				p.logger.Error("Chunk failed",
					logger.Int("chunk", i+1),
					logger.Int("chunks", len(chunks)),
					logger.Error(err),
				)
				return fmt.Errorf("failed to condense chunk %d/%d: %w", i+1, len(chunks), err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
