package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"audit-desk/internal/entities"
	"audit-desk/internal/repositories"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/utils"
	"audit-desk/pkg/validation"
)

// UserService заводит учётные записи. Регистрации через API нет, вызывается из CLI.
type UserService struct {
	userRepository repositories.UserRepositoryInterface
	logger         *zap.Logger
}

func NewUserService(userRepository repositories.UserRepositoryInterface, logger *zap.Logger) *UserService {
	return &UserService{
		userRepository: userRepository,
		logger:         logger,
	}
}

// EnsureUser создаёт пользователя; если email уже занят - возвращает существующего без изменений.
func (s *UserService) EnsureUser(ctx context.Context, email, fullName, password string, isAdmin bool) (*entities.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, apperrors.NewInvalidInputError("email не может быть пустым")
	}

	existing, err := s.userRepository.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, false, err
	}

	if !validation.StrongPassword(password) {
		return nil, false, apperrors.ErrWeakPassword
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user := &entities.User{Email: email, FullName: fullName, PasswordHash: hash, IsAdmin: isAdmin}
	id, err := s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, false, err
	}
	user.ID = id
	s.logger.Info("Пользователь создан", zap.Uint64("userID", id), zap.String("email", email), zap.Bool("isAdmin", isAdmin))
	return user, true, nil
}
