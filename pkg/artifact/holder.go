// Package artifact owns the downloadable output of the latest successful
// condense request.
package artifact

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Store is the part of storage.Storage the holder needs.
type Store interface {
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Holder keeps at most one artifact. Installing a new one releases the
// previous one.
type Holder struct {
	mu      sync.Mutex
	store   Store
	current string
	logger  logger.Logger
}

func NewHolder(store Store, log logger.Logger) *Holder {
	return &Holder{store: store, logger: log.Named("artifact")}
}

// Install stores text and makes it current. If storing fails the previous
// artifact stays current.
func (h *Holder) Install(ctx context.Context, text string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key, err := h.store.Store(ctx, strings.NewReader(text), "artifact-"+uuid.NewString()+".txt")
	if err != nil {
		return "", fmt.Errorf("failed to install artifact: %w", err)
	}

	previous := h.current
	h.current = key
	if previous != "" {
		h.release(ctx, previous)
	}

	h.logger.Debug("Artifact installed",
		logger.String("key", key),
		logger.Int("bytes", len(text)),
	)
	return key, nil
}

// Current returns the key of the current artifact, or "" when none.
func (h *Holder) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Open reads the current artifact.
func (h *Holder) Open(ctx context.Context) (io.ReadCloser, error) {
	key := h.Current()
	if key == "" {
		return nil, fmt.Errorf("no artifact available")
	}
	return h.store.Get(ctx, key)
}

// Release drops the current artifact.
func (h *Holder) Release(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != "" {
		h.release(ctx, h.current)
		h.current = ""
	}
}

func (h *Holder) release(ctx context.Context, key string) {
	if err := h.store.Delete(ctx, key); err != nil {
		h.logger.Warn("Failed to release artifact",
			logger.String("key", key),
			logger.Error(err),
		)
	}
}
