package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"audit-desk/config"
	"audit-desk/internal/dto"
	"audit-desk/internal/entities"
	"audit-desk/internal/repositories"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/filestorage"
	"audit-desk/pkg/utils"
)

const defaultMimeType = "application/octet-stream"

type AttachmentUploaderInterface interface {
	Upload(ctx context.Context, projectID uint64, slot config.Slot, file *dto.FileInput, uploaderID null.Uint64) (*dto.UploadResult, error)
}

// AttachmentUploader кладёт один файл слота в хранилище и пишет его строку.
// Сам ничего не откатывает: при сбое метаданных возвращает путь, чтобы вызывающий удалил объект.
type AttachmentUploader struct {
	attachmentRepo repositories.AttachmentRepositoryInterface
	storage        filestorage.FileStorageInterface
	logger         *zap.Logger
	now            func() time.Time
}

func NewAttachmentUploader(
	attachmentRepo repositories.AttachmentRepositoryInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *AttachmentUploader {
	return &AttachmentUploader{
		attachmentRepo: attachmentRepo,
		storage:        storage,
		logger:         logger,
		now:            time.Now,
	}
}

// StoragePath: projects/<id>/<kind>/<имя>
func StoragePath(projectID uint64, kind, fileName string) string {
	return fmt.Sprintf("projects/%d/%s/%s", projectID, kind, fileName)
}

func (u *AttachmentUploader) Upload(
	ctx context.Context,
	projectID uint64,
	slot config.Slot,
	file *dto.FileInput,
	uploaderID null.Uint64,
) (*dto.UploadResult, error) {
	if file == nil || file.Size == 0 {
		return nil, nil
	}

	slotName := slot.String()
	if !slot.Valid() {
		return nil, apperrors.NewPipelineError(apperrors.KindPipelineFailure, slotName, nil, "неизвестный слот %d", slot)
	}
	rules := slot.Rules()

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	if !slot.Accepts(mimeType) {
		return nil, apperrors.NewPipelineError(apperrors.KindInvalidFileType, slotName, nil,
			"недопустимый тип файла %q для слота %s", mimeType, slotName)
	}
	if file.Size > rules.MaxSizeBytes() {
		return nil, apperrors.NewPipelineError(apperrors.KindFileTooLarge, slotName, nil,
			"файл %s превышает лимит %d МБ", slotName, rules.MaxSizeMB)
	}

	name := file.Name
	if name == "" {
		name = slotName + ".bin"
	}
	path := StoragePath(projectID, rules.Kind, utils.SanitizeFileName(name, u.now()))

	logger := u.logger.With(zap.Uint64("projectID", projectID), zap.String("slot", slotName), zap.String("path", path))

	if err := u.storage.Upload(ctx, path, file.Content, file.Size, mimeType); err != nil {
		logger.Error("Не удалось загрузить файл в хранилище", zap.Error(err))
		return nil, apperrors.NewPipelineError(apperrors.KindUploadFailed, slotName, err, "ошибка загрузки файла %s", slotName)
	}

	id, err := u.attachmentRepo.Create(ctx, &entities.Attachment{
		ProjectID:  projectID,
		Slot:       null.StringFrom(slotName),
		Kind:       rules.Kind,
		Path:       path,
		Mime:       mimeType,
		Size:       file.Size,
		UploadedBy: uploaderID,
	})
	if err != nil {
		logger.Error("Не удалось записать метаданные файла", zap.Error(err))
		return &dto.UploadResult{StoragePath: path},
			apperrors.NewPipelineError(apperrors.KindMetadataInsertFailed, slotName, err, "ошибка записи метаданных файла %s", slotName)
	}

	uploadedBytes.WithLabelValues(slotName).Add(float64(file.Size))
	logger.Info("Файл загружен", zap.Uint64("attachmentID", id), zap.Int64("size", file.Size))
	return &dto.UploadResult{AttachmentID: id, StoragePath: path}, nil
}
