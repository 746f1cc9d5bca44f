package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/document-condenser/pkg/logger"
)

// LocalStorage keeps objects as files under a root directory.
type LocalStorage struct {
	root   string
	logger logger.Logger
}

func New(root string, log logger.Logger) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{root: root, logger: log}, nil
}

func (l *LocalStorage) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(l.root, key), nil
}

// Store writes to a temporary file and renames it into place. An empty key
// gets a generated one.
func (l *LocalStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	dst, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	_, copyErr := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil {
		copyErr = os.Rename(tmp.Name(), dst)
	}
	if copyErr != nil {
		os.Remove(tmp.Name())
		l.logger.Error("Failed to store file",
			logger.String("key", key),
			logger.Error(copyErr),
		)
		return "", fmt.Errorf("failed to store file: %w", copyErr)
	}

	return key, nil
}

func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	src, err := l.path(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Error("Failed to delete file",
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	return filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(path); err != nil {
				l.logger.Error("Failed to delete expired file",
					logger.String("path", path),
					logger.Error(err),
				)
				return nil
			}
			l.logger.Info("Deleted expired file",
				logger.String("path", path),
				logger.Time("lastModified", info.ModTime()),
			)
		}
		return nil
	})
}
