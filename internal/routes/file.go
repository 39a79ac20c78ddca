package routes

import (
	"github.com/labstack/echo/v4"

	"audit-desk/internal/controllers"
	"audit-desk/pkg/middleware"
)

func runFileRouter(api *echo.Group, ctrl *controllers.FileController, authMW *middleware.AuthMiddleware) {
	files := api.Group("/files")
	{
		files.GET("/signed-url", ctrl.SignedURL, authMW.Auth)
		// токен в ссылке сам по себе является разрешением
		files.GET("/download", ctrl.Download)
	}
}
