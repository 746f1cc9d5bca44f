package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/document-condenser/config"
	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/storage/local"
	"github.com/feichai0017/document-condenser/pkg/storage/minio"
	"github.com/feichai0017/document-condenser/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeLocal StorageType = config.StorageLocal
	StorageTypeS3    StorageType = config.StorageS3
	StorageTypeMinio StorageType = config.StorageMinio
)

// Storage keeps uploads and condensed artifacts.
type Storage interface {
	// Store writes reader under key and returns the key it was stored as.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage builds a backend. dir is only used by the local backend.
func NewStorage(ctx context.Context, storageType StorageType, dir string, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeLocal, "":
		return local.New(dir, log.Named("storage.local"))
	case StorageTypeS3:
		return s3.NewS3Storage(ctx, config.GetS3Config(), log.Named("storage.s3"))
	case StorageTypeMinio:
		return minio.NewMinioStorage(ctx, config.GetMinioConfig(), log.Named("storage.minio"))
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
