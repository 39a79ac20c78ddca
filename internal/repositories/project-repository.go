package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"audit-desk/internal/entities"
	db "audit-desk/internal/infrastructure/bd"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/types"
)

const projectTable = "projects p"

const projectSelectFields = "p.id, p.reference, p.customer, p.certification_type, p.city, p.inspection_date, p.audit_status, p.notes, p.year, p.last_updated, p.created_at"

// Поля фильтрации/сортировки из query -> колонки
var projectAllowedFields = map[string]string{
	"id":                 "p.id",
	"year":               "p.year",
	"status":             "p.audit_status",
	"audit_status":       "p.audit_status",
	"city":               "p.city",
	"customer":           "p.customer",
	"certification_type": "p.certification_type",
	"reference":          "p.reference",
	"inspection_date":    "p.inspection_date",
	"last_updated":       "p.last_updated",
}

var projectSearchColumns = []string{"p.reference", "p.customer", "p.city"}

type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *entities.Project) (uint64, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*entities.Project, error)
	List(ctx context.Context, filter types.Filter) ([]entities.Project, uint64, error)
	Years(ctx context.Context) ([]int, error)
}

type ProjectRepository struct {
	storage querier
	logger  *zap.Logger
}

func NewProjectRepository(storage querier, logger *zap.Logger) ProjectRepositoryInterface {
	return &ProjectRepository{storage: storage, logger: logger}
}

func scanProject(row pgx.Row) (*entities.Project, error) {
	var p entities.Project
	err := row.Scan(
		&p.ID, &p.Reference, &p.Customer, &p.CertificationType, &p.City,
		&p.InspectionDate, &p.AuditStatus, &p.Notes, &p.Year,
		&p.LastUpdated, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *entities.Project) (uint64, error) {
	query := `
		INSERT INTO projects
		(reference, customer, certification_type, city, inspection_date, audit_status, notes, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		project.Reference, project.Customer, project.CertificationType, project.City,
		project.InspectionDate, project.AuditStatus, project.Notes, project.Year,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания проекта: %w", err)
	}
	return id, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *entities.Project) error {
	query := `
		UPDATE projects SET
			reference = $1, customer = $2, certification_type = $3, city = $4,
			inspection_date = $5, audit_status = $6, notes = $7, year = $8,
			last_updated = NOW()
		WHERE id = $9`
	result, err := r.storage.Exec(ctx, query,
		project.Reference, project.Customer, project.CertificationType, project.City,
		project.InspectionDate, project.AuditStatus, project.Notes, project.Year,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления проекта: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("ошибка удаления проекта: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id uint64) (*entities.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE p.id = $1", projectSelectFields, projectTable)
	return scanProject(r.storage.QueryRow(ctx, query, id))
}

func (r *ProjectRepository) List(ctx context.Context, filter types.Filter) ([]entities.Project, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countFilter := filter
	countFilter.Sort = nil
	countFilter.WithPagination = false
	countBuilder := db.ApplyListParams(psql.Select("COUNT(p.id)").From(projectTable), countFilter, projectAllowedFields)
	countBuilder = applyProjectSearch(countBuilder, filter.Search)

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("Подсчёт проектов", zap.String("query", countQuery), zap.Any("args", countArgs))

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета проектов: %w", err)
	}
	if total == 0 {
		return []entities.Project{}, 0, nil
	}

	builder := db.ApplyListParams(psql.Select(projectSelectFields).From(projectTable), filter, projectAllowedFields)
	builder = applyProjectSearch(builder, filter.Search)
	if !hasAllowedSort(filter.Sort, projectAllowedFields) {
		builder = builder.OrderBy("p.inspection_date DESC NULLS LAST")
	}
	builder = builder.OrderBy("p.id DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("Список проектов", zap.String("query", query), zap.Any("args", args))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения проектов: %w", err)
	}
	defer rows.Close()

	projects := make([]entities.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

func (r *ProjectRepository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.storage.Query(ctx, "SELECT DISTINCT year FROM projects ORDER BY year DESC")
	if err != nil {
		return nil, fmt.Errorf("ошибка получения годов: %w", err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func applyProjectSearch(builder sq.SelectBuilder, search string) sq.SelectBuilder {
	if search == "" {
		return builder
	}
	pattern := "%" + search + "%"
	or := sq.Or{}
	for _, col := range projectSearchColumns {
		or = append(or, sq.ILike{col: pattern})
	}
	return builder.Where(or)
}

func hasAllowedSort(sort map[string]string, allowed map[string]string) bool {
	for field := range sort {
		if _, ok := allowed[field]; ok {
			return true
		}
	}
	return false
}
