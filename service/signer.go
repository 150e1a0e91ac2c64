package service

import (
	"context"

	"github.com/muroom-studio/muroom-admin/config"
)

// NewSigner builds the configured storage backend. It returns nil, nil when
// the driver is "none".
func NewSigner(ctx context.Context, cfg *config.StorageConfig) (Signer, error) {
	switch cfg.Driver {
	case "minio":
		svc, err := NewMinioService(&cfg.Minio, cfg.PresignExpiry())
		if err != nil {
			return nil, err
		}
		if err := svc.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return svc, nil
	case "s3":
		svc, err := NewS3Service(ctx, &cfg.S3, cfg.PresignExpiry())
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
	return nil, nil
}
