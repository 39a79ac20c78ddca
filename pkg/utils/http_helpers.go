package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/types"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

const (
	DefaultLimit = 200
	MaxLimit     = 500
)

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filterReq.Limit = min(l, MaxLimit)
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	filterReq.WithPagination = values.Get("withPagination") != "false"

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}

		if key == "search" {
			filterReq.Search = vals[0]
			continue
		}

		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
			continue
		}

		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field := key[7 : len(key)-1]
			// filter[year]=2024&filter[year]=2025 и filter[year]=2024,2025 равнозначны
			filterReq.Filter[field] = strings.Join(vals, ",")
		}
	}

	return filterReq
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message, Body: body}
	if len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		if filter.WithPagination {
			response.Body = map[string]interface{}{
				"list":       body,
				"pagination": types.NewPagination(total[0], filter.Page, filter.Limit),
			}
		}
	}
	return ctx.JSON(code, response)
}

var sentinelStatus = []struct {
	err  error
	code int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrUserNotFound, http.StatusNotFound},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotAccess, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotRefresh, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrUserIDNotFoundInContext, http.StatusUnauthorized},
	{apperrors.ErrAccountLocked, http.StatusTooManyRequests},
	{apperrors.ErrWeakPassword, http.StatusBadRequest},
	{apperrors.ErrInvalidResetToken, http.StatusBadRequest},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
}

func errorBody(message string) map[string]interface{} {
	return map[string]interface{}{"status": false, "message": message}
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil && httpErr.Code >= http.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}
		response := errorBody(httpErr.Message)
		if httpErr.Details != nil {
			response["body"] = httpErr.Details
		}
		return c.JSON(httpErr.Code, response)
	}

	var fieldErr *apperrors.ValidationError
	if errors.As(err, &fieldErr) {
		response := errorBody(fieldErr.Error())
		response["field_errors"] = fieldErr.Fields
		return c.JSON(http.StatusBadRequest, response)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string][]string, len(validationErrors))
		for _, e := range validationErrors {
			fields[e.Field()] = append(fields[e.Field()], fmt.Sprintf("не прошло проверку '%s'", e.Tag()))
		}
		response := errorBody("Ошибка валидации")
		response["field_errors"] = fields
		return c.JSON(http.StatusBadRequest, response)
	}

	var pipelineErr *apperrors.PipelineError
	if errors.As(err, &pipelineErr) {
		// сбой на проверке NotFound при обновлении отдаём как 404
		code := pipelineErr.HTTPStatus()
		if errors.Is(pipelineErr, apperrors.ErrNotFound) {
			code = http.StatusNotFound
		}
		if code >= http.StatusInternalServerError {
			logger.Error("Сбой пайплайна", zap.String("kind", string(pipelineErr.Kind)), zap.String("slot", pipelineErr.Slot), zap.Error(err))
		}
		response := errorBody(pipelineErr.Message)
		response["kind"] = pipelineErr.Kind
		if pipelineErr.Slot != "" {
			response["slot"] = pipelineErr.Slot
		}
		return c.JSON(code, response)
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return c.JSON(http.StatusBadRequest, errorBody(inputErr.Message))
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return c.JSON(s.code, errorBody(s.err.Error()))
		}
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorBody("Внутренняя ошибка сервера"))
}
