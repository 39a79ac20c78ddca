package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"audit-desk/internal/entities"
	apperrors "audit-desk/pkg/errors"
)

const userSelectFields = "id, email, full_name, password_hash, is_admin, created_at, updated_at"

type UserRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) (uint64, error)
	UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error
}

type UserRepository struct {
	storage querier
	logger  *zap.Logger
}

func NewUserRepository(storage querier, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE LOWER(email) = $1`
	return scanUser(r.storage.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE id = $1`
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) (uint64, error) {
	query := `
		INSERT INTO users (email, full_name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		strings.ToLower(strings.TrimSpace(user.Email)), user.FullName, user.PasswordHash, user.IsAdmin,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return id, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error {
	result, err := r.storage.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
