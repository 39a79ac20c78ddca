package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"audit-desk/pkg/contextkeys"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/service"
	"audit-desk/pkg/utils"
)

// SessionChecker - проверка отзыва токена и роли пользователя.
type SessionChecker interface {
	CheckToken(ctx context.Context, claims *service.JwtCustomClaim) error
	IsAdmin(ctx context.Context, userID uint64) (bool, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	sessions   SessionChecker
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, sessions SessionChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		sessions:   sessions,
		logger:     logger,
	}
}

// Auth пропускает запрос только с действующим access-токеном.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: Попытка доступа с refresh токеном", zap.Uint64("userID", claims.UserID))
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		ctx := c.Request().Context()
		if err := m.sessions.CheckToken(ctx, claims); err != nil {
			m.logger.Warn("AuthMiddleware: Токен отклонён", zap.Uint64("userID", claims.UserID), zap.Error(err))
			return utils.ErrorResponse(c, apperrors.ErrTokenRevoked, m.logger)
		}

		ctx = context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, contextkeys.ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// AdminGate ставится после Auth. Пропускает только администраторов.
func (m *AuthMiddleware) AdminGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := utils.GetUserIDFromCtx(ctx)
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}

		isAdmin, err := m.sessions.IsAdmin(ctx, userID)
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}
		if !isAdmin {
			m.logger.Warn("AdminGate: доступ без прав администратора", zap.Uint64("userID", userID), zap.String("path", c.Path()))
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}

		c.SetRequest(c.Request().WithContext(context.WithValue(ctx, contextkeys.IsAdminKey, true)))
		return next(c)
	}
}
