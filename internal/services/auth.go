package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"audit-desk/internal/dto"
	"audit-desk/internal/entities"
	"audit-desk/internal/repositories"
	"audit-desk/pkg/config"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/service"
	"audit-desk/pkg/utils"
	"audit-desk/pkg/validation"
)

const (
	LogoutScopeLocal  = "local"
	LogoutScopeGlobal = "global"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error)
	CurrentUser(ctx context.Context, userID uint64) (*entities.User, error)
	IsAdmin(ctx context.Context, userID uint64) (bool, error)
	// CheckToken возвращает ErrTokenRevoked для отозванного токена.
	CheckToken(ctx context.Context, claims *service.JwtCustomClaim) error
	Logout(ctx context.Context, claims *service.JwtCustomClaim, scope string) error
	ChangePassword(ctx context.Context, userID uint64, payload dto.ChangePasswordDTO) error
	RequestPasswordReset(ctx context.Context, payload dto.ForgotPasswordDTO) error
	VerifyResetToken(ctx context.Context, payload dto.VerifyTokenDTO) (*dto.ResetSessionDTO, error)
	ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	notifier   NotificationServiceInterface
	logger     *zap.Logger
	cfg        *config.AuthConfig
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	notifier NotificationServiceInterface,
	jwtSvc service.JWTService,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
		sessionTTL: jwtSvc.GetRefreshTokenTTL(),
		now:        time.Now,
	}
}

func adminKey(userID uint64) string      { return fmt.Sprintf("auth:admin:%d", userID) }
func validAfterKey(userID uint64) string { return fmt.Sprintf("auth:valid_after:%d", userID) }
func revokedKey(jti string) string       { return "auth:revoked:" + jti }
func resetTokenKey(token string) string  { return "reset_token:" + token }
func resetSessionKey(s string) string    { return "reset_session:" + s }

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Error("Login: ошибка поиска пользователя", zap.Error(err))
		}
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	s.resetLoginAttempts(ctx, user.ID)
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uint64) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("CurrentUser: не удалось найти пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// IsAdmin читает флаг из кеша, при промахе - из базы, и кладёт обратно.
func (s *AuthService) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	key := adminKey(userID)
	if cached, err := s.cacheRepo.Get(ctx, key); err == nil {
		if v, perr := strconv.ParseBool(cached); perr == nil {
			return v, nil
		}
		s.logger.Warn("IsAdmin: повреждённое значение в кеше", zap.String("key", key), zap.String("value", cached))
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("IsAdmin: ошибка чтения кеша, запрос к БД", zap.Uint64("userID", userID), zap.Error(err))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, apperrors.ErrUnauthorized
		}
		s.logger.Error("IsAdmin: не удалось получить пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return false, apperrors.ErrInternalServer
	}

	if err := s.cacheRepo.Set(ctx, key, strconv.FormatBool(user.IsAdmin), s.cfg.AdminCacheTTL); err != nil {
		s.logger.Warn("IsAdmin: не удалось сохранить флаг в кеш", zap.Uint64("userID", userID), zap.Error(err))
	}
	return user.IsAdmin, nil
}

// CheckToken: токен отозван, если его jti в чёрном списке
// или он выпущен не позже глобального выхода пользователя.
func (s *AuthService) CheckToken(ctx context.Context, claims *service.JwtCustomClaim) error {
	if claims.ID != "" {
		_, err := s.cacheRepo.Get(ctx, revokedKey(claims.ID))
		if err == nil {
			return apperrors.ErrTokenRevoked
		}
		if !errors.Is(err, repositories.ErrCacheMiss) {
			return fmt.Errorf("проверка отзыва токена: %w", err)
		}
	}

	raw, err := s.cacheRepo.Get(ctx, validAfterKey(claims.UserID))
	if errors.Is(err, repositories.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("проверка отзыва токена: %w", err)
	}
	validAfter, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("CheckToken: повреждённая отметка глобального выхода", zap.String("value", raw))
		return nil
	}
	// отметка и iat в миллисекундах: вход сразу после смены пароля не должен отзываться
	if claims.IssuedAt == nil || claims.IssuedAt.UnixMilli() <= validAfter {
		return apperrors.ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) Logout(ctx context.Context, claims *service.JwtCustomClaim, scope string) error {
	logger := s.logger.With(zap.Uint64("userID", claims.UserID), zap.String("scope", scope))

	switch scope {
	case "", LogoutScopeLocal:
		if claims.ID == "" || claims.ExpiresAt == nil {
			return nil
		}
		ttl := claims.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
		if err := s.cacheRepo.Set(ctx, revokedKey(claims.ID), "1", ttl); err != nil {
			logger.Error("Logout: не удалось отозвать токен", zap.Error(err))
			return apperrors.ErrInternalServer
		}
	case LogoutScopeGlobal:
		if err := s.signOutEverywhere(ctx, claims.UserID); err != nil {
			logger.Error("Logout: не удалось завершить все сессии", zap.Error(err))
			return apperrors.ErrInternalServer
		}
	default:
		return apperrors.NewBadRequestError("неизвестная область выхода: " + scope)
	}

	logger.Info("Пользователь вышел из системы")
	return nil
}

func (s *AuthService) signOutEverywhere(ctx context.Context, userID uint64) error {
	return s.cacheRepo.Set(ctx, validAfterKey(userID), strconv.FormatInt(s.now().UnixMilli(), 10), s.sessionTTL)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, payload dto.ChangePasswordDTO) error {
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := utils.ComparePasswords(user.PasswordHash, payload.CurrentPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}
	if err := s.setPassword(ctx, userID, payload.NewPassword); err != nil {
		return err
	}
	s.logger.Info("Пароль изменён, все сессии завершены", zap.Uint64("userID", userID))
	return nil
}

// RequestPasswordReset всегда отвечает успехом: по ответу нельзя узнать, есть ли такой email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, payload dto.ForgotPasswordDTO) error {
	logger := s.logger.With(zap.String("email", payload.Email))

	spamKey := "reset_spam_protect:" + payload.Email
	if _, err := s.cacheRepo.Get(ctx, spamKey); err == nil {
		logger.Warn("Слишком частые запросы на сброс пароля")
		return nil
	}

	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			logger.Warn("Попытка сброса пароля для несуществующего пользователя")
		} else {
			logger.Error("Ошибка поиска пользователя для сброса пароля", zap.Error(err))
		}
		return nil
	}

	if err := s.cacheRepo.Set(ctx, spamKey, "active", time.Minute); err != nil {
		logger.Warn("Не удалось поставить защиту от спама", zap.Error(err))
	}

	token := uuid.NewString()
	if err := s.cacheRepo.Set(ctx, resetTokenKey(token), user.ID, s.cfg.ResetTokenTTL); err != nil {
		logger.Error("Не удалось сохранить токен сброса", zap.Error(err))
		return nil
	}

	redirect := payload.RedirectTo
	if redirect != "" && !redirectAllowed(redirect, s.cfg.ResetRedirectURL, s.cfg.RedirectAllowList) {
		logger.Warn("redirect_to вне списка разрешённых адресов, используется адрес по умолчанию", zap.String("redirect_to", redirect))
		redirect = ""
	}
	link, err := resetLink(redirect, s.cfg.ResetRedirectURL, token)
	if err != nil {
		logger.Error("Неверный адрес перенаправления", zap.Error(err))
		return nil
	}
	if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		logger.Error("Письмо сброса пароля не отправлено", zap.Error(err))
	}
	return nil
}

// redirectAllowed: ссылка с токеном уходит только на origin адреса по умолчанию или из списка.
func redirectAllowed(redirect, fallback string, allowList []string) bool {
	origin, ok := urlOrigin(redirect)
	if !ok {
		return false
	}
	if fb, ok := urlOrigin(fallback); ok && fb == origin {
		return true
	}
	for _, allowed := range allowList {
		if a, ok := urlOrigin(allowed); ok && a == origin {
			return true
		}
	}
	return false
}

func urlOrigin(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

// resetLink: <redirect>?token_hash=<token>, прочие параметры адреса сохраняются.
func resetLink(redirect, fallback, token string) (string, error) {
	if redirect == "" {
		redirect = fallback
	}
	u, err := url.Parse(redirect)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token_hash", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// VerifyResetToken гасит одноразовый токен и выдаёт сессию сброса.
func (s *AuthService) VerifyResetToken(ctx context.Context, payload dto.VerifyTokenDTO) (*dto.ResetSessionDTO, error) {
	raw, err := s.cacheRepo.GetDel(ctx, resetTokenKey(payload.TokenHash))
	if err != nil {
		if !errors.Is(err, repositories.ErrCacheMiss) {
			s.logger.Error("Ошибка чтения токена сброса", zap.Error(err))
		}
		return nil, apperrors.ErrInvalidResetToken
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return nil, apperrors.ErrInvalidResetToken
	}

	session := uuid.NewString()
	if err := s.cacheRepo.Set(ctx, resetSessionKey(session), userID, s.cfg.ResetSessionTTL); err != nil {
		return nil, apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка при сохранении сессии сброса", err, nil)
	}
	s.logger.Info("Токен сброса подтверждён", zap.Uint64("userID", userID))
	return &dto.ResetSessionDTO{ResetSession: session}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error {
	if !validation.StrongPassword(payload.NewPassword) {
		return apperrors.ErrWeakPassword
	}
	raw, err := s.cacheRepo.GetDel(ctx, resetSessionKey(payload.ResetSession))
	if err != nil {
		return apperrors.ErrInvalidResetToken
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return apperrors.ErrInvalidResetToken
	}

	if err := s.setPassword(ctx, userID, payload.NewPassword); err != nil {
		return err
	}
	s.resetLoginAttempts(ctx, userID)
	s.logger.Info("Пароль сброшен, все сессии завершены", zap.Uint64("userID", userID))
	return nil
}

// setPassword проверяет политику, сохраняет хеш и завершает все сессии пользователя.
func (s *AuthService) setPassword(ctx context.Context, userID uint64, password string) error {
	if !validation.StrongPassword(password) {
		return apperrors.ErrWeakPassword
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка хеширования нового пароля", err, nil)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
		return apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка обновления пароля пользователя", err, map[string]interface{}{"userID": userID})
	}
	if err := s.signOutEverywhere(ctx, userID); err != nil {
		s.logger.Error("Не удалось завершить сессии после смены пароля", zap.Uint64("userID", userID), zap.Error(err))
	}
	return nil
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	if _, err := s.cacheRepo.Get(ctx, fmt.Sprintf("lockout:%d", userID)); err == nil {
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf("login_attempts:%d", userID)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("Не удалось учесть неудачную попытку входа", zap.Uint64("userID", userID), zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		_ = s.cacheRepo.Set(ctx, fmt.Sprintf("lockout:%d", userID), "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("Учётная запись заблокирована после неудачных попыток входа", zap.Uint64("userID", userID))
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	_ = s.cacheRepo.Del(ctx, fmt.Sprintf("login_attempts:%d", userID), fmt.Sprintf("lockout:%d", userID))
}
