// Package blob implements media storage on S3-compatible object stores.
package blob

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// resolveExpiry is how long a resolved media URL stays valid. Clients
// re-resolve on every tree read, so short-lived links are fine.
const resolveExpiry = time.Hour

// MinioStore implements ports.BlobStore on a MinIO / S3-compatible bucket
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// MinioConfig holds connection settings for the object store
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore connects to the object store and ensures the bucket exists
func NewMinioStore(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (ports.BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, pkgerrors.NewExternalError("object store connection failed", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, pkgerrors.NewExternalError("object store bucket check failed", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, pkgerrors.NewExternalError("object store bucket creation failed", err)
		}
		logger.Info("created media bucket", zap.String("bucket", cfg.Bucket))
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Upload writes the object under key and returns the key
func (s *MinioStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("media upload failed",
			zap.String("key", key),
			zap.Int64("size", size),
			zap.Error(err))
		return "", pkgerrors.NewExternalError("media upload failed", err)
	}

	s.logger.Debug("media uploaded",
		zap.String("key", key),
		zap.Int64("size", size),
		zap.String("contentType", contentType))
	return key, nil
}

// ResolveURL exchanges a storage key for a presigned GET URL
func (s *MinioStore) ResolveURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, resolveExpiry, nil)
	if err != nil {
		return "", pkgerrors.NewExternalError("media URL resolution failed", err)
	}
	return u.String(), nil
}
