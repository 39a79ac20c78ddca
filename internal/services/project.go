package services

import (
	"context"
	"errors"
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
	"audit-desk/pkg/validation"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Caller - кто вызывает пайплайн. Права администратора проверены до входа в сервис.
type Caller struct {
	UserID  uint64
	IsAdmin bool
}

type ProjectServiceInterface interface {
	Create(ctx context.Context, caller Caller, rawFields map[string]string, files map[config.Slot]*dto.FileInput) (uint64, error)
	Update(ctx context.Context, caller Caller, id uint64, rawFields map[string]string, files map[config.Slot]*dto.FileInput) error
	Delete(ctx context.Context, caller Caller, id uint64) error
}

type ProjectService struct {
	projectRepo    repositories.ProjectRepositoryInterface
	attachmentRepo repositories.AttachmentRepositoryInterface
	uploader       AttachmentUploaderInterface
	storage        filestorage.FileStorageInterface
	logger         *zap.Logger
	now            func() time.Time
}

func NewProjectService(
	projectRepo repositories.ProjectRepositoryInterface,
	attachmentRepo repositories.AttachmentRepositoryInterface,
	uploader AttachmentUploaderInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) ProjectServiceInterface {
	return &ProjectService{
		projectRepo:    projectRepo,
		attachmentRepo: attachmentRepo,
		uploader:       uploader,
		storage:        storage,
		logger:         logger,
		now:            time.Now,
	}
}

func toProjectEntity(fields *dto.ProjectFields) *entities.Project {
	return &entities.Project{
		Reference:         fields.Reference,
		Customer:          fields.Customer,
		CertificationType: fields.CertificationType,
		City:              fields.City,
		InspectionDate:    fields.InspectionDate,
		AuditStatus:       fields.AuditStatus,
		Notes:             null.NewString(fields.Notes, fields.Notes != ""),
		Year:              fields.Year,
	}
}

func (s *ProjectService) Create(ctx context.Context, caller Caller, rawFields map[string]string, files map[config.Slot]*dto.FileInput) (uint64, error) {
	if !caller.IsAdmin {
		observeOperation(opCreate, outcomeForbidden)
		return 0, apperrors.ErrForbidden
	}

	fields, verr := validation.ValidateProjectFields(rawFields, s.now())
	if verr != nil {
		observeOperation(opCreate, outcomeInvalid)
		return 0, verr
	}

	// дальше откат не должен прерываться из-за отключения клиента
	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With(zap.String("op", opCreate), zap.Uint64("userID", caller.UserID))

	id, err := s.projectRepo.Create(ctx, toProjectEntity(fields))
	if err != nil {
		logger.Error("Не удалось создать проект", zap.Error(err))
		observeOperation(opCreate, outcomeFailed)
		return 0, apperrors.NewPipelineError(apperrors.KindPipelineFailure, "", err, "не удалось создать проект")
	}
	logger = logger.With(zap.Uint64("projectID", id))

	undo := newCompensationLog(logger)
	undo.Register("удаление проекта", func(ctx context.Context) error {
		return s.projectRepo.Delete(ctx, id)
	})

	if err := s.uploadSlots(ctx, undo, caller, id, files, nil); err != nil {
		logger.Warn("Создание проекта откатывается", zap.Error(err))
		undo.Rollback(ctx)
		observeOperation(opCreate, outcomeRolledBack)
		return 0, err
	}

	logger.Info("Проект создан")
	observeOperation(opCreate, outcomeOK)
	return id, nil
}

func (s *ProjectService) Update(ctx context.Context, caller Caller, id uint64, rawFields map[string]string, files map[config.Slot]*dto.FileInput) error {
	if !caller.IsAdmin {
		observeOperation(opUpdate, outcomeForbidden)
		return apperrors.ErrForbidden
	}

	fields, verr := validation.ValidateProjectFields(rawFields, s.now())
	if verr != nil {
		observeOperation(opUpdate, outcomeInvalid)
		return verr
	}

	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With(zap.String("op", opUpdate), zap.Uint64("userID", caller.UserID), zap.Uint64("projectID", id))

	project := toProjectEntity(fields)
	project.ID = id
	if err := s.projectRepo.Update(ctx, project); err != nil {
		logger.Error("Не удалось обновить поля проекта", zap.Error(err))
		observeOperation(opUpdate, outcomeFailed)
		return apperrors.NewPipelineError(apperrors.KindPipelineFailure, "", err, "не удалось обновить проект %d", id)
	}

	// Обновление полей выше не откатывается: при сбое файлов меняются только они.
	undo := newCompensationLog(logger)
	var superseded []string
	if err := s.uploadSlots(ctx, undo, caller, id, files, &superseded); err != nil {
		logger.Warn("Файлы обновления откатываются, поля проекта уже сохранены", zap.Error(err))
		undo.Rollback(ctx)
		observeOperation(opUpdate, outcomeRolledBack)
		return err
	}

	// заменённые blob удаляются только после успеха всего вызова
	if len(superseded) > 0 {
		if err := s.storage.Remove(ctx, superseded); err != nil {
			logger.Warn("Не удалось удалить заменённые файлы из хранилища", zap.Strings("paths", superseded), zap.Error(err))
		}
	}

	logger.Info("Проект обновлён", zap.Int("replaced", len(superseded)))
	observeOperation(opUpdate, outcomeOK)
	return nil
}

func (s *ProjectService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if !caller.IsAdmin {
		observeOperation(opDelete, outcomeForbidden)
		return apperrors.ErrForbidden
	}

	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With(zap.String("op", opDelete), zap.Uint64("userID", caller.UserID), zap.Uint64("projectID", id))

	attachments, err := s.attachmentRepo.FindByProjectID(ctx, id)
	if err != nil {
		observeOperation(opDelete, outcomeFailed)
		return apperrors.NewPipelineError(apperrors.KindPipelineFailure, "", err, "не удалось получить файлы проекта %d", id)
	}

	if len(attachments) > 0 {
		paths := make([]string, 0, len(attachments))
		for _, a := range attachments {
			paths = append(paths, a.Path)
		}
		// удаление объектов - по возможности, строки удаляются в любом случае
		if err := s.storage.Remove(ctx, paths); err != nil {
			logger.Warn("Не все файлы удалены из хранилища", zap.Strings("paths", paths), zap.Error(err))
		}
	}

	if _, err := s.attachmentRepo.DeleteByProjectID(ctx, id); err != nil {
		logger.Error("Не удалось удалить строки файлов", zap.Error(err))
		observeOperation(opDelete, outcomeFailed)
		return apperrors.NewPipelineError(apperrors.KindPipelineFailure, "", err, "не удалось удалить файлы проекта %d", id)
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		observeOperation(opDelete, outcomeFailed)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		logger.Error("Не удалось удалить проект", zap.Error(err))
		return apperrors.NewPipelineError(apperrors.KindPipelineFailure, "", err, "не удалось удалить проект %d", id)
	}

	logger.Info("Проект удалён", zap.Int("files", len(attachments)))
	observeOperation(opDelete, outcomeOK)
	return nil
}

// uploadSlots грузит файлы в порядке объявления слотов и регистрирует обратные действия.
// superseded != nil включает замену: старые строки слота удаляются сразу, их объекты копятся в superseded.
func (s *ProjectService) uploadSlots(
	ctx context.Context,
	undo *compensationLog,
	caller Caller,
	projectID uint64,
	files map[config.Slot]*dto.FileInput,
	superseded *[]string,
) error {
	uploaderID := null.NewUint64(caller.UserID, caller.UserID != 0)

	for _, slot := range config.Slots() {
		file, ok := files[slot]
		if !ok {
			continue
		}

		res, err := s.uploader.Upload(ctx, projectID, slot, file, uploaderID)
		if res != nil && res.StoragePath != "" {
			path := res.StoragePath
			undo.Register("удаление объекта "+path, func(ctx context.Context) error {
				return s.storage.Remove(ctx, []string{path})
			})
		}
		if err != nil {
			return err
		}
		if res == nil {
			continue
		}

		attachmentID := res.AttachmentID
		undo.Register(fmt.Sprintf("удаление строки файла %d", attachmentID), func(ctx context.Context) error {
			_, err := s.attachmentRepo.DeleteByIDs(ctx, []uint64{attachmentID})
			return err
		})

		if superseded != nil {
			paths, err := s.supersede(ctx, undo, projectID, slot, attachmentID)
			if err != nil {
				return err
			}
			*superseded = append(*superseded, paths...)
		}
	}
	return nil
}

// supersede удаляет строки слота старше newID и возвращает пути их объектов.
func (s *ProjectService) supersede(ctx context.Context, undo *compensationLog, projectID uint64, slot config.Slot, newID uint64) ([]string, error) {
	slotName := slot.String()
	old, err := s.attachmentRepo.FindSuperseded(ctx, projectID, slotName, newID)
	if err != nil {
		return nil, apperrors.NewPipelineError(apperrors.KindPipelineFailure, slotName, err, "не удалось найти прежние файлы слота %s", slotName)
	}
	if len(old) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(old))
	paths := make([]string, 0, len(old))
	for _, a := range old {
		ids = append(ids, a.ID)
		paths = append(paths, a.Path)
	}

	if _, err := s.attachmentRepo.DeleteByIDs(ctx, ids); err != nil {
		return nil, apperrors.NewPipelineError(apperrors.KindPipelineFailure, slotName, err, "не удалось заменить файл слота %s", slotName)
	}
	undo.Register("восстановление прежних файлов слота "+slotName, func(ctx context.Context) error {
		var errs []error
		for _, a := range old {
			if err := s.attachmentRepo.Restore(ctx, a); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	return paths, nil
}
