package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/utils"
)

type HealthController struct {
	version func(ctx context.Context) (string, error)
	logger  *zap.Logger
}

// NewHealthController принимает функцию опроса базы, обычно postgresql.Version над пулом.
func NewHealthController(version func(ctx context.Context) (string, error), logger *zap.Logger) *HealthController {
	return &HealthController{version: version, logger: logger}
}

func (ctrl *HealthController) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	version, err := ctrl.version(ctx)
	if err != nil {
		ctrl.logger.Error("Health: база данных недоступна", zap.Error(err))
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusServiceUnavailable, "База данных недоступна", err, nil), ctrl.logger)
	}
	return utils.SuccessResponse(c, map[string]string{"database": version}, "OK", http.StatusOK)
}
