package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"audit-desk/config"
	"audit-desk/internal/dto"
	"audit-desk/internal/services"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/utils"
)

var projectFormFields = []string{
	dto.FieldReference,
	dto.FieldCustomer,
	dto.FieldCertificationType,
	dto.FieldCity,
	dto.FieldInspectionDate,
	dto.FieldStatus,
	dto.FieldNotes,
}

type ProjectController struct {
	projectService services.ProjectServiceInterface
	readService    services.ProjectReadServiceInterface
	logger         *zap.Logger
}

func NewProjectController(
	projectService services.ProjectServiceInterface,
	readService services.ProjectReadServiceInterface,
	logger *zap.Logger,
) *ProjectController {
	return &ProjectController{
		projectService: projectService,
		readService:    readService,
		logger:         logger,
	}
}

func (ctrl *ProjectController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

func callerFromCtx(c echo.Context) (services.Caller, error) {
	ctx := c.Request().Context()
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return services.Caller{}, err
	}
	return services.Caller{UserID: userID, IsAdmin: utils.IsAdminFromCtx(ctx)}, nil
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError("Неверный ID проекта")
	}
	return id, nil
}

// readProjectForm разбирает multipart-форму: поля проекта и по одному файлу на слот.
// Возвращённую функцию нужно вызвать, чтобы закрыть открытые файлы.
func readProjectForm(c echo.Context) (map[string]string, map[config.Slot]*dto.FileInput, func(), error) {
	raw := make(map[string]string, len(projectFormFields))
	for _, name := range projectFormFields {
		raw[name] = c.FormValue(name)
	}

	files := make(map[config.Slot]*dto.FileInput)
	var closers []io.Closer
	closeAll := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}

	for _, slot := range config.Slots() {
		fh, err := c.FormFile(slot.String())
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			closeAll()
			return nil, nil, func() {}, apperrors.NewBadRequestError("Некорректная multipart-форма")
		}
		src, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, func() {}, apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка обработки файла", err, nil)
		}
		closers = append(closers, src)
		files[slot] = &dto.FileInput{
			Name:     fh.Filename,
			MimeType: fh.Header.Get(echo.HeaderContentType),
			Size:     fh.Size,
			Content:  src,
		}
	}
	return raw, files, closeAll, nil
}

func (ctrl *ProjectController) Create(c echo.Context) error {
	caller, err := callerFromCtx(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	raw, files, closeFiles, err := readProjectForm(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	defer closeFiles()

	id, err := ctrl.projectService.Create(c.Request().Context(), caller, raw, files)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.CreateProjectResponseDTO{ID: id}, "Проект успешно создан", http.StatusCreated)
}

func (ctrl *ProjectController) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	caller, err := callerFromCtx(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	raw, files, closeFiles, err := readProjectForm(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	defer closeFiles()

	if err := ctrl.projectService.Update(c.Request().Context(), caller, id, raw, files); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Проект успешно обновлён", http.StatusOK)
}

func (ctrl *ProjectController) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	caller, err := callerFromCtx(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	if err := ctrl.projectService.Delete(c.Request().Context(), caller, id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Проект удалён", http.StatusOK)
}

func (ctrl *ProjectController) List(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	res, total, err := ctrl.readService.List(c.Request().Context(), filter)
	if err != nil {
		ctrl.logger.Error("Ошибка при получении списка проектов", zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, res, "Проекты успешно получены", http.StatusOK, total)
}

func (ctrl *ProjectController) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.readService.Get(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, res, "Проект успешно получен", http.StatusOK)
}

func (ctrl *ProjectController) Years(c echo.Context) error {
	years, err := ctrl.readService.Years(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.YearsDTO{Years: years}, "Годы успешно получены", http.StatusOK)
}
