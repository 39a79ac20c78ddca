package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"audit-desk/internal/dto"
	"audit-desk/internal/repositories"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/filestorage"
)

type FileAccessServiceInterface interface {
	SignedURL(ctx context.Context, path string) (*dto.SignedURLDTO, error)
}

// FileAccessService выдаёт короткоживущие ссылки только на файлы, известные базе.
type FileAccessService struct {
	attachmentRepo repositories.AttachmentRepositoryInterface
	storage        filestorage.FileStorageInterface
	ttl            time.Duration
	logger         *zap.Logger
}

func NewFileAccessService(
	attachmentRepo repositories.AttachmentRepositoryInterface,
	storage filestorage.FileStorageInterface,
	ttl time.Duration,
	logger *zap.Logger,
) FileAccessServiceInterface {
	return &FileAccessService{attachmentRepo: attachmentRepo, storage: storage, ttl: ttl, logger: logger}
}

func (s *FileAccessService) SignedURL(ctx context.Context, path string) (*dto.SignedURLDTO, error) {
	if path == "" {
		return nil, apperrors.NewBadRequestError("не указан путь файла")
	}
	if _, err := s.attachmentRepo.FindByPath(ctx, path); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	issued := time.Now()
	url, err := s.storage.SignedURL(ctx, path, s.ttl)
	if err != nil {
		s.logger.Error("Не удалось подписать ссылку на файл", zap.String("path", path), zap.Error(err))
		return nil, apperrors.NewPipelineError(apperrors.KindSignedURLError, "", err, "не удалось получить ссылку на файл")
	}
	return &dto.SignedURLDTO{URL: url, ExpiresAt: issued.Add(s.ttl)}, nil
}
