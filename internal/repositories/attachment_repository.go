package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"audit-desk/internal/entities"
	apperrors "audit-desk/pkg/errors"
)

const attachmentSelectFields = "id, project_id, slot, kind, path, mime, size, uploaded_by, uploaded_at"

type AttachmentRepositoryInterface interface {
	Create(ctx context.Context, attachment *entities.Attachment) (uint64, error)
	// Restore возвращает ранее удалённую строку с её исходным id.
	Restore(ctx context.Context, attachment entities.Attachment) error
	FindByProjectID(ctx context.Context, projectID uint64) ([]entities.Attachment, error)
	FindByProjectIDs(ctx context.Context, projectIDs []uint64) ([]entities.Attachment, error)
	// FindSuperseded - строки того же слота, более старые чем newerThanID.
	FindSuperseded(ctx context.Context, projectID uint64, slot string, newerThanID uint64) ([]entities.Attachment, error)
	FindByPath(ctx context.Context, path string) (*entities.Attachment, error)
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, error)
	DeleteByProjectID(ctx context.Context, projectID uint64) (int64, error)
}

type AttachmentRepository struct {
	storage querier
	logger  *zap.Logger
}

func NewAttachmentRepository(storage querier, logger *zap.Logger) AttachmentRepositoryInterface {
	return &AttachmentRepository{storage: storage, logger: logger}
}

func scanAttachment(row pgx.Row) (*entities.Attachment, error) {
	var a entities.Attachment
	err := row.Scan(&a.ID, &a.ProjectID, &a.Slot, &a.Kind, &a.Path, &a.Mime, &a.Size, &a.UploadedBy, &a.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepository) queryAttachments(ctx context.Context, query string, args ...interface{}) ([]entities.Attachment, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]entities.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *a)
	}
	return attachments, rows.Err()
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *entities.Attachment) (uint64, error) {
	query := `
		INSERT INTO files
		(project_id, slot, kind, path, mime, size, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		attachment.ProjectID, attachment.Slot, attachment.Kind, attachment.Path,
		attachment.Mime, attachment.Size, attachment.UploadedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи метаданных файла: %w", err)
	}
	return id, nil
}

func (r *AttachmentRepository) Restore(ctx context.Context, attachment entities.Attachment) error {
	query := `
		INSERT INTO files
		(id, project_id, slot, kind, path, mime, size, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.storage.Exec(ctx, query,
		attachment.ID, attachment.ProjectID, attachment.Slot, attachment.Kind, attachment.Path,
		attachment.Mime, attachment.Size, attachment.UploadedBy, attachment.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка восстановления файла %d: %w", attachment.ID, err)
	}
	return nil
}

func (r *AttachmentRepository) FindByProjectID(ctx context.Context, projectID uint64) ([]entities.Attachment, error) {
	query := `SELECT ` + attachmentSelectFields + ` FROM files WHERE project_id = $1 ORDER BY id DESC`
	return r.queryAttachments(ctx, query, projectID)
}

func (r *AttachmentRepository) FindByProjectIDs(ctx context.Context, projectIDs []uint64) ([]entities.Attachment, error) {
	if len(projectIDs) == 0 {
		return []entities.Attachment{}, nil
	}
	query := `SELECT ` + attachmentSelectFields + ` FROM files WHERE project_id = ANY($1) ORDER BY project_id, id DESC`
	return r.queryAttachments(ctx, query, projectIDs)
}

func (r *AttachmentRepository) FindSuperseded(ctx context.Context, projectID uint64, slot string, newerThanID uint64) ([]entities.Attachment, error) {
	query := `SELECT ` + attachmentSelectFields + ` FROM files WHERE project_id = $1 AND slot = $2 AND id < $3 ORDER BY id`
	return r.queryAttachments(ctx, query, projectID, slot, newerThanID)
}

func (r *AttachmentRepository) FindByPath(ctx context.Context, path string) (*entities.Attachment, error) {
	query := `SELECT ` + attachmentSelectFields + ` FROM files WHERE path = $1`
	return scanAttachment(r.storage.QueryRow(ctx, query, path))
}

func (r *AttachmentRepository) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.storage.Exec(ctx, "DELETE FROM files WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления файлов: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *AttachmentRepository) DeleteByProjectID(ctx context.Context, projectID uint64) (int64, error) {
	result, err := r.storage.Exec(ctx, "DELETE FROM files WHERE project_id = $1", projectID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления файлов проекта: %w", err)
	}
	return result.RowsAffected(), nil
}
