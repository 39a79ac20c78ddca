package routes

import (
	"github.com/labstack/echo/v4"

	"audit-desk/internal/controllers"
	"audit-desk/pkg/middleware"
)

// Чтение - любому вошедшему пользователю, запись - только администраторам.
func runProjectRouter(api *echo.Group, ctrl *controllers.ProjectController, authMW *middleware.AuthMiddleware) {
	projects := api.Group("/projects", authMW.Auth)
	{
		projects.GET("", ctrl.List)
		projects.GET("/years", ctrl.Years)
		projects.GET("/export", ctrl.Export)
		projects.GET("/:id", ctrl.Get)

		projects.POST("", ctrl.Create, authMW.AdminGate)
		projects.PUT("/:id", ctrl.Update, authMW.AdminGate)
		projects.DELETE("/:id", ctrl.Delete, authMW.AdminGate)
	}
}
