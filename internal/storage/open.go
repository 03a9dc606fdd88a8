package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/lecturehub/apiserver/config"
)

// ErrNoBackend is returned by Open when the selected remote backend cannot
// be constructed.
var ErrNoBackend = errors.New("object storage backend unavailable")

// Open builds the asset store for the configured backend and makes sure its
// bucket exists. The placeholder backend needs no network access.
func Open(ctx context.Context, cfg config.StorageConfig) (*Assets, error) {
	var (
		backend ObjectStorage
		err     error
	)

	switch cfg.Backend() {
	case config.StorageS3:
		backend, err = NewS3Client(ctx, cfg.AWS)
	case config.StorageMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return NewPlaceholderAssets(cfg.PlaceholderBaseURL), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", s.Bucket(), err)
	}
	return NewRemoteAssets(s), nil
}
