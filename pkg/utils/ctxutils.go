package utils

import (
	"context"

	"audit-desk/pkg/contextkeys"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/service"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetClaimsFromCtx(ctx context.Context) (*service.JwtCustomClaim, error) {
	claims, ok := ctx.Value(contextkeys.ClaimsKey).(*service.JwtCustomClaim)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// IsAdminFromCtx: флаг ставит AdminGate, без него считаем, что прав нет.
func IsAdminFromCtx(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(contextkeys.IsAdminKey).(bool)
	return isAdmin
}
