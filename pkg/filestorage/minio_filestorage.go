package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"audit-desk/pkg/config"
)

// MinioFileStorage - S3-совместимое хранилище, один бакет на всё приложение.
type MinioFileStorage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewMinioFileStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*MinioFileStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("не удалось проверить бакет %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("не удалось создать бакет %q: %w", cfg.Bucket, err)
		}
		logger.Info("Создан бакет хранилища", zap.String("bucket", cfg.Bucket))
	}

	return &MinioFileStorage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioFileStorage) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	if _, err := cleanObjectPath(objectPath); err != nil {
		return err
	}

	// S3 перезаписывает молча, поэтому сначала проверяем наличие
	_, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err == nil {
		return ErrObjectExists
	}
	if !isNoSuchKey(err) {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioFileStorage) Remove(ctx context.Context, objectPaths []string) error {
	if len(objectPaths) == 0 {
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(objectPaths))
	for _, p := range objectPaths {
		objects <- minio.ObjectInfo{Key: p}
	}
	close(objects)

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err == nil || isNoSuchKey(rerr.Err) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", rerr.ObjectName, rerr.Err))
	}
	return errors.Join(errs...)
}

func (s *MinioFileStorage) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return "", ErrObjectMissing
		}
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectPath, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
