package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"audit-desk/internal/dto"
	"audit-desk/internal/entities"
	"audit-desk/internal/services"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/service"
	"audit-desk/pkg/utils"
)

const refreshCookieName = "refreshToken"

type AuthController struct {
	authService services.AuthServiceInterface
	jwtSvc      service.JWTService
	logger      *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	jwtSvc service.JWTService,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService: authService,
		jwtSvc:      jwtSvc,
		logger:      logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

func toUserPublicDTO(user *entities.User) dto.UserPublicDTO {
	return dto.UserPublicDTO{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		IsAdmin:  user.IsAdmin,
	}
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Неверный формат данных для входа"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	user, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.String("email", payload.Email), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}

	return ctrl.generateTokensAndRespond(c, user, "Авторизация прошла успешно")
}

func (ctrl *AuthController) RefreshToken(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}

	claims, err := ctrl.jwtSvc.ValidateToken(cookie.Value)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if !claims.IsRefreshToken {
		return ctrl.errorResponse(c, apperrors.ErrTokenIsNotRefresh)
	}
	if err := ctrl.authService.CheckToken(c.Request().Context(), claims); err != nil {
		ctrl.clearRefreshCookie(c)
		return ctrl.errorResponse(c, apperrors.ErrTokenRevoked)
	}

	user, err := ctrl.authService.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}
	return ctrl.generateTokensAndRespond(c, user, "Токены успешно обновлены")
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	claims, err := utils.GetClaimsFromCtx(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	var payload dto.LogoutDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.ErrBadRequest)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	if err := ctrl.authService.Logout(c.Request().Context(), claims, payload.Scope); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ctrl.clearRefreshCookie(c)
	return utils.SuccessResponse(c, nil, "Вы успешно вышли из системы.", http.StatusOK)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	userID, err := utils.GetUserIDFromCtx(c.Request().Context())
	if err != nil {
		ctrl.logger.Error("Не удалось получить userID из контекста в защищенном маршруте")
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}
	user, err := ctrl.authService.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, toUserPublicDTO(user), "Профиль пользователя успешно получен", http.StatusOK)
}

func (ctrl *AuthController) ChangePassword(c echo.Context) error {
	userID, err := utils.GetUserIDFromCtx(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}

	var payload dto.ChangePasswordDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.ErrBadRequest)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	if err := ctrl.authService.ChangePassword(c.Request().Context(), userID, payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ctrl.clearRefreshCookie(c)
	return utils.SuccessResponse(c, nil, "Пароль изменён. Войдите заново.", http.StatusOK)
}

func (ctrl *AuthController) ForgotPassword(c echo.Context) error {
	var payload dto.ForgotPasswordDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.ErrBadRequest)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	if err := ctrl.authService.RequestPasswordReset(c.Request().Context(), payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Если пользователь существует, инструкция будет отправлена.", http.StatusOK)
}

func (ctrl *AuthController) VerifyToken(c echo.Context) error {
	var payload dto.VerifyTokenDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.ErrBadRequest)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	response, err := ctrl.authService.VerifyResetToken(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, response, "Токен подтверждён.", http.StatusOK)
}

func (ctrl *AuthController) ResetPassword(c echo.Context) error {
	var payload dto.ResetPasswordDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.ErrBadRequest)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	if err := ctrl.authService.ResetPassword(c.Request().Context(), payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Пароль успешно изменен.", http.StatusOK)
}

func (ctrl *AuthController) generateTokensAndRespond(c echo.Context, user *entities.User, message string) error {
	accessToken, refreshToken, err := ctrl.jwtSvc.GenerateTokens(user.ID)
	if err != nil {
		ctrl.logger.Error("Не удалось сгенерировать токены", zap.Error(err), zap.Uint64("userID", user.ID))
		return ctrl.errorResponse(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/api/auth",
		Expires:  time.Now().Add(ctrl.jwtSvc.GetRefreshTokenTTL()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	response := dto.AuthResponseDTO{
		AccessToken: accessToken,
		User:        toUserPublicDTO(user),
	}
	return utils.SuccessResponse(c, response, message, http.StatusOK)
}

func (ctrl *AuthController) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
