package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"audit-desk/internal/services"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/filestorage"
	"audit-desk/pkg/utils"
)

// DownloadOpener открывает объект по токену из подписанной ссылки. Есть только у локального хранилища.
type DownloadOpener interface {
	Open(token string) (*os.File, string, error)
}

type FileController struct {
	fileService services.FileAccessServiceInterface
	opener      DownloadOpener
	logger      *zap.Logger
}

// NewFileController: opener == nil отключает /download (ссылки ведут прямо в S3).
func NewFileController(fileService services.FileAccessServiceInterface, opener DownloadOpener, logger *zap.Logger) *FileController {
	return &FileController{fileService: fileService, opener: opener, logger: logger}
}

func (ctrl *FileController) SignedURL(c echo.Context) error {
	res, err := ctrl.fileService.SignedURL(c.Request().Context(), c.QueryParam("path"))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Ссылка на файл получена", http.StatusOK)
}

func (ctrl *FileController) Download(c echo.Context) error {
	if ctrl.opener == nil {
		return utils.ErrorResponse(c, apperrors.ErrNotFound, ctrl.logger)
	}

	f, objectPath, err := ctrl.opener.Open(c.QueryParam("token"))
	if err != nil {
		if errors.Is(err, filestorage.ErrObjectMissing) {
			return utils.ErrorResponse(c, apperrors.ErrNotFound, ctrl.logger)
		}
		ctrl.logger.Warn("Download: ссылка отклонена", zap.Error(err))
		return utils.ErrorResponse(c, apperrors.ErrForbidden, ctrl.logger)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "inline; filename="+path.Base(objectPath))
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response().Writer, f)
	return err
}
